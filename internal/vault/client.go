package vault

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
)

// ErrNoVault is returned when a transit ciphertext must be opened without a Vault client
var ErrNoVault = errors.New("vault is not configured")

// Stored comment markers
const (
	// ciphertextPrefix starts values produced by the transit engine
	ciphertextPrefix = "vault:"
	// plaintextPrefix starts comments stored without encryption
	plaintextPrefix = "plain:"
)

// Client wraps the transit engine of a HashiCorp Vault server
type Client struct {
	client       *api.Client
	transitMount string
}

// Config holds Vault configuration
type Config struct {
	Address      string
	Token        string
	TransitMount string
}

// NewClient connects to Vault and mounts the transit engine when it is missing
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	config := api.DefaultConfig()
	config.Address = cfg.Address

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	c := &Client{
		client:       client,
		transitMount: cfg.TransitMount,
	}

	if err := c.initTransitEngine(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize transit engine: %w", err)
	}

	return c, nil
}

func (c *Client) initTransitEngine(ctx context.Context) error {
	mounts, err := c.client.Sys().ListMountsWithContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to list mounts: %w", err)
	}

	if _, exists := mounts[c.transitMount+"/"]; exists {
		return nil
	}

	err = c.client.Sys().MountWithContext(ctx, c.transitMount, &api.MountInput{
		Type:        "transit",
		Description: "Transit encryption for assessment comments",
	})
	if err != nil {
		return fmt.Errorf("failed to mount transit engine: %w", err)
	}

	return nil
}

// EnsureKey creates a non-exportable aes256-gcm96 key unless it already exists
func (c *Client) EnsureKey(ctx context.Context, keyName string) error {
	path := fmt.Sprintf("%s/keys/%s", c.transitMount, keyName)

	existing, err := c.client.Logical().ReadWithContext(ctx, path)
	if err == nil && existing != nil {
		return nil
	}

	_, err = c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"type":       "aes256-gcm96",
		"exportable": false,
	})
	if err != nil {
		return fmt.Errorf("failed to create key %s: %w", keyName, err)
	}

	return nil
}

// Encrypt encrypts plaintext with a transit key
func (c *Client) Encrypt(ctx context.Context, keyName string, plaintext []byte) (string, error) {
	path := fmt.Sprintf("%s/encrypt/%s", c.transitMount, keyName)

	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"plaintext": base64.StdEncoding.EncodeToString(plaintext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encrypt: %w", err)
	}
	if secret == nil {
		return "", fmt.Errorf("empty encrypt response")
	}

	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok {
		return "", fmt.Errorf("invalid ciphertext response")
	}

	return ciphertext, nil
}

// Decrypt decrypts a transit ciphertext
func (c *Client) Decrypt(ctx context.Context, keyName string, ciphertext string) ([]byte, error) {
	path := fmt.Sprintf("%s/decrypt/%s", c.transitMount, keyName)

	secret, err := c.client.Logical().WriteWithContext(ctx, path, map[string]interface{}{
		"ciphertext": ciphertext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}
	if secret == nil {
		return nil, fmt.Errorf("empty decrypt response")
	}

	encoded, ok := secret.Data["plaintext"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid plaintext response")
	}

	plaintext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode plaintext: %w", err)
	}

	return plaintext, nil
}

// HealthCheck checks Vault health status
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized {
		return fmt.Errorf("vault is not initialized")
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}

	return nil
}

// CommentCipher seals rating comments with one transit key. Without a client it stores
// comments in plaintext behind plaintextPrefix.
type CommentCipher struct {
	client  *Client
	keyName string
}

// NewCommentCipher prepares the transit key. client may be nil.
func NewCommentCipher(ctx context.Context, client *Client, keyName string) (*CommentCipher, error) {
	if client != nil {
		if err := client.EnsureKey(ctx, keyName); err != nil {
			return nil, err
		}
	}
	return &CommentCipher{client: client, keyName: keyName}, nil
}

// Seal returns the value to store for a comment
func (c *CommentCipher) Seal(ctx context.Context, comment string) (string, error) {
	if c.client == nil {
		return plaintextPrefix + comment, nil
	}
	return c.client.Encrypt(ctx, c.keyName, []byte(comment))
}

// Open returns the comment behind a stored value. Only values in transit ciphertext
// format go to Vault; anything else is plaintext, marked or written before the marker
// existed.
func (c *CommentCipher) Open(ctx context.Context, stored string) (string, error) {
	if comment, ok := strings.CutPrefix(stored, plaintextPrefix); ok {
		return comment, nil
	}
	if !isTransitCiphertext(stored) {
		return stored, nil
	}
	if c.client == nil {
		return "", ErrNoVault
	}
	plaintext, err := c.client.Decrypt(ctx, c.keyName, stored)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}

// isTransitCiphertext matches "vault:v<version>:<base64>"
func isTransitCiphertext(s string) bool {
	rest, ok := strings.CutPrefix(s, ciphertextPrefix+"v")
	if !ok {
		return false
	}
	version, payload, ok := strings.Cut(rest, ":")
	if !ok || version == "" || payload == "" {
		return false
	}
	for _, r := range version {
		if r < '0' || r > '9' {
			return false
		}
	}
	_, err := base64.StdEncoding.DecodeString(payload)
	return err == nil
}
