package services

import (
	"errors"
	"log"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"wallet-chat-service/models"
	"wallet-chat-service/utils"
)

const maxAvatarSize = 5 * 1024 * 1024 // 5MB

type AuthService struct {
	DB *gorm.DB
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{DB: db}
}

// Register verifies a wallet signature and creates the user row on first
// success. Subsequent registrations of the same address are reported, not
// duplicated.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var body struct {
		RawAddress string `json:"raw_address"`
		Message    string `json:"message"`
		Signature  string `json:"signature"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	if body.RawAddress == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "address is required"})
	}
	if body.Message == "" || body.Signature == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "signature is required"})
	}

	address, err := utils.NormalizeAddress(body.RawAddress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address"})
	}

	if err := utils.VerifyPersonalSignature(address, body.Message, body.Signature); err != nil {
		log.Printf("[AUTH] Signature verification failed for %s: %v", address, err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "signature verification failed"})
	}

	var user models.User
	err = s.DB.Where("address = ?", address).First(&user).Error
	isRegistered := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[AUTH] User lookup failed for %s: %v", address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "server error"})
	}

	if !isRegistered {
		user = models.User{Address: address, Language: utils.DefaultLanguage}
		if err := s.DB.Create(&user).Error; err != nil {
			log.Printf("[AUTH] Failed to create user %s: %v", address, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "server error"})
		}
	}

	msg := "registered"
	if isRegistered {
		msg = "already registered"
	}
	return c.JSON(fiber.Map{
		"message":      msg,
		"isRegistered": isRegistered,
	})
}

// UpdateProfile mutates username, preferred language and (optionally) the
// avatar. An avatar upload requires a fresh signature; the image goes to R2
// when configured, otherwise to the local uploads directory.
func (s *AuthService) UpdateProfile(c *fiber.Ctx) error {
	rawAddress := c.FormValue("raw_address")
	username := c.FormValue("username")
	language := c.FormValue("language")

	if rawAddress == "" || username == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "address and username are required"})
	}

	address, err := utils.NormalizeAddress(rawAddress)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address"})
	}

	updates := map[string]any{
		"username":   username,
		"language":   utils.NormalizeLanguage(language),
		"updated_at": time.Now().UTC(),
	}

	if avatar, err := c.FormFile("avatar"); err == nil && avatar.Size > 0 {
		if avatar.Size > maxAvatarSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "avatar too large (max 5MB)"})
		}

		message := c.FormValue("message")
		signature := c.FormValue("signature")
		if message == "" || signature == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "avatar upload requires a signature"})
		}
		if err := utils.VerifyPersonalSignature(address, message, signature); err != nil {
			log.Printf("[AUTH] Avatar signature verification failed for %s: %v", address, err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "signature verification failed"})
		}

		ext := filepath.Ext(avatar.Filename)
		if ext == "" {
			ext = ".png"
		}
		filename := slug.Make(username) + "-" + uuid.NewString() + ext

		var avatarURL string
		if utils.R2Enabled() {
			avatarURL, err = utils.UploadFileToR2(c.Context(), avatar, "avatars/"+filename)
			if err != nil {
				log.Printf("[AUTH] Avatar upload to R2 failed for %s: %v", address, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to upload avatar"})
			}
		} else {
			localPath := utils.GetUploadPath(filepath.Join("avatars", filename))
			if err := utils.SaveFile(avatar, localPath); err != nil {
				log.Printf("[AUTH] Avatar save failed for %s: %v", address, err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to save avatar"})
			}
			avatarURL = "/uploads/avatars/" + filename
		}
		updates["avatar_url"] = avatarURL
	}

	result := s.DB.Model(&models.User{}).Where("address = ?", address).Updates(updates)
	if result.Error != nil {
		log.Printf("[AUTH] Profile update failed for %s: %v", address, result.Error)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to update profile"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not registered"})
	}

	resp := fiber.Map{
		"message":  "profile updated",
		"username": username,
		"language": updates["language"],
	}
	if url, ok := updates["avatar_url"]; ok {
		resp["avatarUrl"] = url
	}
	return c.JSON(resp)
}

// UserInfo returns the stored profile for an address.
func (s *AuthService) UserInfo(c *fiber.Ctx) error {
	var body struct {
		Address    string `json:"address"`
		RawAddress string `json:"raw_address"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid request body"})
	}

	raw := body.Address
	if raw == "" {
		raw = body.RawAddress
	}
	if raw == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "address is required"})
	}

	address, err := utils.NormalizeAddress(raw)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid address"})
	}

	var user models.User
	if err := s.DB.Where("address = ?", address).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "user not found"})
		}
		log.Printf("[AUTH] User lookup failed for %s: %v", address, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "server error"})
	}

	return c.JSON(fiber.Map{"userInfo": user})
}
