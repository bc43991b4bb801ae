package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/FranLegon/drive-cleanup/internal/crypto"
	"github.com/manifoldco/promptui"
)

// ErrNotInitialized is returned when no encrypted secrets exist yet
var ErrNotInitialized = errors.New("no stored credentials, please run the 'login' command first")

// Secrets is the structure serialized to the encrypted secrets file
type Secrets struct {
	Account      string    `json:"account"`
	RefreshToken string    `json:"refresh_token"`
	SavedAt      time.Time `json:"saved_at"`
}

// LoadSecrets decrypts the secrets file with a key derived from the master password
func LoadSecrets(s *Settings, masterPassword string) (*Secrets, error) {
	salt, err := crypto.LoadSalt(s.SaltFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read salt file: %w", err)
	}

	ciphertext, err := os.ReadFile(s.SecretsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotInitialized
		}
		return nil, fmt.Errorf("failed to read secrets file: %w", err)
	}

	plaintext, err := crypto.Decrypt(ciphertext, crypto.DeriveKey(masterPassword, salt))
	if err != nil {
		return nil, errors.New("failed to decrypt secrets: master password may be incorrect")
	}

	var secrets Secrets
	if err := json.Unmarshal(plaintext, &secrets); err != nil {
		return nil, fmt.Errorf("failed to parse secrets: %w", err)
	}
	return &secrets, nil
}

// SaveSecrets encrypts and writes the secrets, creating the salt on first use
func SaveSecrets(s *Settings, masterPassword string, secrets *Secrets) error {
	salt, err := crypto.LoadSalt(s.SaltFile)
	if os.IsNotExist(err) {
		salt, err = crypto.GenerateAndSaveSalt(s.SaltFile)
	}
	if err != nil {
		return fmt.Errorf("failed to prepare salt: %w", err)
	}

	plaintext, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to encode secrets: %w", err)
	}

	ciphertext, err := crypto.Encrypt(plaintext, crypto.DeriveKey(masterPassword, salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt secrets for saving: %w", err)
	}

	// Write with permissions that only allow the current user to read/write.
	return os.WriteFile(s.SecretsFile, ciphertext, 0600)
}

// GetMasterPassword prompts for the master password without echoing it
func GetMasterPassword(confirm bool) (string, error) {
	validate := func(input string) error {
		if len(input) < 8 {
			return errors.New("password must be at least 8 characters long")
		}
		return nil
	}

	prompt := promptui.Prompt{
		Label:    "Enter Master Password",
		Mask:     '*',
		Validate: validate,
	}

	password, err := prompt.Run()
	if err != nil {
		return "", err
	}

	if confirm {
		confirmPrompt := promptui.Prompt{
			Label:    "Confirm Master Password",
			Mask:     '*',
			Validate: validate,
		}
		confirmation, err := confirmPrompt.Run()
		if err != nil {
			return "", err
		}
		if password != confirmation {
			return "", errors.New("passwords do not match")
		}
	}

	return password, nil
}
