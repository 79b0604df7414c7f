package services

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"wallet-chat-service/utils"
)

// TranslationService proxies translation requests to the inference provider
// so clients never hold provider credentials. On failure nothing is
// persisted; the sender falls back to sending untranslated.
type TranslationService struct {
	Inference *InferenceClient
}

func NewTranslationService(inference *InferenceClient) *TranslationService {
	return &TranslationService{Inference: inference}
}

// Proxy translates one text into the target language.
func (s *TranslationService) Proxy(c *fiber.Ctx) error {
	var body struct {
		Text           string `json:"text"`
		TargetLanguage string `json:"targetLanguage"`
		UserLanguage   string `json:"userLanguage"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	target := body.TargetLanguage
	if target == "" {
		target = body.UserLanguage
	}
	if body.Text == "" || target == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing required parameters"})
	}

	if !s.Inference.Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "translation is not configured"})
	}

	language := utils.NormalizeLanguage(target)
	translated, err := s.Inference.Translate(context.Background(), body.Text, language)
	if err != nil {
		log.Printf("[TRANSLATE] Translation failed: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "translation failed"})
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"translatedText": translated,
		"targetLanguage": language,
	})
}
