// Package credential stores mail server passwords in the system keyring.
package credential

import (
	"errors"
	"fmt"

	"github.com/99designs/keyring"
)

const serviceName = "dupmail"

// Keyring reads and writes credentials under the dupmail service.
type Keyring struct {
	cfg keyring.Config
}

// Default returns the keyring backed by the platform secret store,
// falling back to an encrypted file under ~/.config/dupmail.
func Default() *Keyring {
	return &Keyring{cfg: keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/dupmail/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("dupmail-file-key"),
		KeychainTrustApplication: true,
	}}
}

// NewFile returns a keyring that only uses the encrypted file backend in
// dir.
func NewFile(dir, passphrase string) *Keyring {
	return &Keyring{cfg: keyring.Config{
		ServiceName:      serviceName,
		AllowedBackends:  []keyring.BackendType{keyring.FileBackend},
		FileDir:          dir,
		FilePasswordFunc: keyring.FixedStringPrompt(passphrase),
	}}
}

// IMAPKey is the key an IMAP password is stored under.
func IMAPKey(username, host string) string {
	return "imap-" + username + "@" + host
}

func (k *Keyring) open() (keyring.Keyring, error) {
	ring, err := keyring.Open(k.cfg)
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key.
func (k *Keyring) Get(key string) (string, error) {
	ring, err := k.open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup is Get with a missing key reported as ok == false instead of
// an error.
func (k *Keyring) Lookup(key string) (value string, ok bool, err error) {
	value, err = k.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores a credential value by key.
func (k *Keyring) Set(key string, value string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: "dupmail " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key.
func (k *Keyring) Delete(key string) error {
	ring, err := k.open()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
