package translate

import "fmt"

const cleanupInstruction = "Preserve the full structure of the text extracted from a document, " +
	"keeping the format exactly as per document, while keeping the headings and full body of the text intact. " +
	"Remove the images and irrelevant hyperlinks:"

func cleanupPrompt(text string) string {
	return cleanupInstruction + "\n\n" + text
}

func translatePrompt(text, source, target string) string {
	return fmt.Sprintf("Translate the extracted %s text fully to %s:\n\n%s", source, target, text)
}
