package dto

type RenderInput struct {
	Kind string
	// Locale overrides the configured report locale when set.
	Locale string
}

type RenderOutput struct {
	Kind     string
	Filename string
	Content  string
}

type ExportOutput struct {
	Kind     string
	Filename string
	Path     string
	Bytes    int
}
