package docs

// SourceDocument is a parsed documentation file. It is built once by the
// parser and not mutated afterwards; re-parsing a file replaces it wholesale.
type SourceDocument struct {
	FilePath   string // Absolute path of the source file
	RelPath    string // Relative path from the docs root, forward slashes
	Title      string
	Content    string // Raw markdown content
	Sections   []Section
	CodeBlocks []CodeBlock
	WordCount  int
	CharCount  int
}

// Section is a heading-delimited span of a document. Its content run extends
// until the next heading of equal or lower level.
type Section struct {
	Level     int // 1-6
	Title     string
	Content   string // Raw markdown of the content run
	PlainText string // Plain-text rendering of the content run
}

// CodeBlock is a fenced code block extracted from the raw markdown.
type CodeBlock struct {
	Language  string // "text" when the fence carries no language tag
	Code      string
	StartLine int // First line of the body (0-based)
	EndLine   int // Line of the closing fence (0-based)
}

// ChunkKind distinguishes a whole-document chunk from a window over a
// larger document.
type ChunkKind string

const (
	ChunkFullDocument ChunkKind = "full_document"
	ChunkSection      ChunkKind = "section"
)

// Chunk is a retrievable slice of a SourceDocument. Indices are contiguous
// starting at 0 within a document; each chunk carries its parent document's
// attribution metadata.
type Chunk struct {
	Index     int
	Content   string
	Kind      ChunkKind
	WordCount int

	Title    string   // Parent document title
	RelPath  string   // Parent document relative path
	FilePath string   // Parent document absolute path
	Sections []string // Parent document section titles, in order
}

// Source is a user-facing citation derived from retrieval evidence.
// Its identity for deduplication purposes is the (Title, URL) pair.
type Source struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Section     string `json:"section,omitempty"`
	FilePath    string `json:"file_path"`
}
