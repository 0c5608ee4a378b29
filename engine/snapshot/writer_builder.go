package snapshot

// WriterBuilderOption is a functional option for configuring a Writer.
type WriterBuilderOption func(w *Writer)

// WithPrefix prepends prefix to every file name.
//
// Parameters:
//   - prefix: the file name prefix
//
// Returns:
//   - WriterBuilderOption: option function to apply
func WithPrefix(prefix string) WriterBuilderOption {
	return func(w *Writer) {
		w.prefix = prefix
	}
}

// WithFormats sets the formats each snapshot is written in. Defaults to PNG only.
//
// Parameters:
//   - formats: the output formats
//
// Returns:
//   - WriterBuilderOption: option function to apply
func WithFormats(formats ...Format) WriterBuilderOption {
	return func(w *Writer) {
		w.formats = formats
	}
}
