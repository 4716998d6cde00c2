package domain

import "fmt"

// User-visible messages, in the order they're sent.
const (
	MessageReceived         = "📥 Photo successfully received. Processing is underway..."
	MessageNotFood          = "⚠️ This image is not detected as food."
	MessageGeneratingRecipe = "🧠 Making a recipe... please wait a moment..."

	captionMessageTemplate = "📸 AI identified this image as:\n*%s*"
	finalMessageTemplate   = "📜 This recipe for *%s*:\n\n%s"
	videoMessageTemplate   = "\n\n🎬 A video that may help: %s"
	errorMessageTemplate   = "❌ There is an Error:\n%s"
)

func FormatCaptionMessage(caption Caption) string {
	return fmt.Sprintf(captionMessageTemplate, caption)
}

// FormatFinalMessage always includes the caption, whether the recipe is real or a placeholder.
func FormatFinalMessage(caption Caption, recipe Recipe, videoURL string) string {
	message := fmt.Sprintf(finalMessageTemplate, caption, recipe.Text)
	if videoURL != "" {
		message += fmt.Sprintf(videoMessageTemplate, videoURL)
	}
	return message
}

func FormatErrorMessage(err error) string {
	return fmt.Sprintf(errorMessageTemplate, err)
}
