package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	CachePath  string
	DeckName   string
	ListModels bool
	ShowStats  bool
	ClearCache bool

	// Generation flags
	APIURL        string
	ModelName     string
	SentenceCount int
	Workers       int

	// Batch and chat flags
	PrefetchFile string
	ExplainWord  string
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		SentenceCount: 5,
	}
}
