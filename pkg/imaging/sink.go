package imaging

// Sink consumes finished rasters: a file writer, a terminal viewer, or a
// test recorder. pix is row-major with len(pix) == width*height and must
// not be retained after Accept returns unless the sink copies it.
type Sink interface {
	Accept(width, height int, pix []byte) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(width, height int, pix []byte) error

// Accept calls f.
func (f SinkFunc) Accept(width, height int, pix []byte) error {
	return f(width, height, pix)
}

// Deliver validates r and hands it to s.
func Deliver(s Sink, r *Raster) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return s.Accept(r.Width, r.Height, r.Pix)
}
