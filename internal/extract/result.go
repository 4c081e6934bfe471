package extract

const (
	MethodTextLayer = "text-layer"
	MethodOCR       = "ocr"
	MethodNative    = "native"
)

type Job struct {
	LocalPath string
	WorkDir   string // session-scoped scratch directory, removed by the caller
	FileName  string
	MIMEType  string
	FileSize  int64
	Language  string // OCR language code, e.g. "eng" or "tam"
}

type Result struct {
	Text        string       `json:"text"`
	Method      string       `json:"method"`
	FileType    string       `json:"fileType"`
	MIMEType    string       `json:"mimeType"`
	Pages       []PageResult `json:"pages,omitempty"`
	FailedPages []int        `json:"failedPages,omitempty"`
	WordCount   int          `json:"wordCount"`
	CharCount   int          `json:"charCount"`
}

type PageResult struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
	Method     string `json:"method"`
	WordCount  int    `json:"wordCount"`
}

func BuildCounts(text string) (wordCount int, charCount int) {
	charCount = len([]rune(text))
	wordCount = 0
	inWord := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
			if inWord {
				wordCount++
				inWord = false
			}
			continue
		}
		inWord = true
	}
	if inWord {
		wordCount++
	}
	return
}
