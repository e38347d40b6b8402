package generator

type Config struct {
	Use     string
	Short   string
	Long    string
	Version string

	// Template overrides the built-in code template when non-empty.
	// It is executed with a *Model.
	Template string

	DefaultSuffix    string // "Partial" when empty
	DefaultDerives   []string
	DefaultOutput    string
	DefaultFormat    bool
	DefaultFormatCmd string
}
