package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/and161185/jobassist/internal/crypto/clientcrypto"
	"github.com/and161185/jobassist/internal/model"
)

// Fixed record names; each is one file in the session directory.
const (
	TokenRecord = "token"
	UserRecord  = "user"
	keyFileName = "session.key"
)

// key file layouts
const (
	keyRaw     byte = 1 // 1 || key
	keyWrapped byte = 2 // 2 || salt || WrapKey(KEK, key)
)

// ErrPassphraseRequired is returned when the session key is wrapped and no passphrase is configured.
var ErrPassphraseRequired = errors.New("session key is passphrase-protected; set session.passphrase")

// unreadableKey tags a session key that is missing or cannot be used.
func unreadableKey(err error) error {
	return fmt.Errorf("%w: session key: %w", ErrUnreadable, err)
}

// FileStore persists the session as two sealed files.
type FileStore struct {
	dir        string
	passphrase []byte
}

// NewFileStore stores session files under dir. A non-empty passphrase wraps
// the session key with an Argon2id-derived KEK.
func NewFileStore(dir, passphrase string) *FileStore {
	return &FileStore{dir: dir, passphrase: []byte(passphrase)}
}

// DefaultDir returns $XDG_CONFIG_HOME/jobassist or ~/.config/jobassist.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "jobassist")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "jobassist")
}

// Dir returns the directory holding the session files.
func (f *FileStore) Dir() string { return f.dir }

func (f *FileStore) path(name string) string { return filepath.Join(f.dir, name) }

// Load implements Persister.
func (f *FileStore) Load(context.Context) (model.Session, bool, error) {
	tokBlob, err := os.ReadFile(f.path(TokenRecord))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}
	userBlob, err := os.ReadFile(f.path(UserRecord))
	if errors.Is(err, fs.ErrNotExist) {
		return model.Session{}, false, nil
	}
	if err != nil {
		return model.Session{}, false, err
	}

	key, err := f.loadKey()
	if err != nil {
		return model.Session{}, false, err
	}
	tok, err := clientcrypto.Open(key, TokenRecord, tokBlob)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("%w: open %s: %w", ErrUnreadable, TokenRecord, err)
	}
	rawUser, err := clientcrypto.Open(key, UserRecord, userBlob)
	if err != nil {
		return model.Session{}, false, fmt.Errorf("%w: open %s: %w", ErrUnreadable, UserRecord, err)
	}
	var u model.User
	if err := json.Unmarshal(rawUser, &u); err != nil {
		return model.Session{}, false, fmt.Errorf("%w: decode %s: %w", ErrUnreadable, UserRecord, err)
	}
	return model.Session{Token: string(tok), User: u}, true, nil
}

// Save implements Persister.
func (f *FileStore) Save(_ context.Context, s model.Session) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return err
	}
	key, err := f.loadOrCreateKey()
	if err != nil {
		return err
	}
	rawUser, err := json.Marshal(s.User)
	if err != nil {
		return err
	}
	tokBlob, err := clientcrypto.Seal(key, TokenRecord, []byte(s.Token))
	if err != nil {
		return err
	}
	userBlob, err := clientcrypto.Seal(key, UserRecord, rawUser)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(f.path(UserRecord), userBlob); err != nil {
		return err
	}
	return writeFileAtomic(f.path(TokenRecord), tokBlob)
}

// Delete implements Persister. The session key is kept for the next login.
func (f *FileStore) Delete(context.Context) error {
	var firstErr error
	for _, name := range []string{TokenRecord, UserRecord} {
		if err := os.Remove(f.path(name)); err != nil && !errors.Is(err, fs.ErrNotExist) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *FileStore) loadKey() ([]byte, error) {
	b, err := os.ReadFile(f.path(keyFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, unreadableKey(err)
	}
	if err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}
	if len(b) == 0 {
		return nil, unreadableKey(errors.New("empty file"))
	}
	switch b[0] {
	case keyRaw:
		if len(b) != 1+clientcrypto.KeyLen {
			return nil, unreadableKey(errors.New("bad length"))
		}
		return b[1:], nil
	case keyWrapped:
		if len(f.passphrase) == 0 {
			return nil, fmt.Errorf("%w: %w", ErrUnreadable, ErrPassphraseRequired)
		}
		if len(b) < 1+clientcrypto.SaltLen {
			return nil, unreadableKey(errors.New("truncated"))
		}
		salt := b[1 : 1+clientcrypto.SaltLen]
		key, err := clientcrypto.UnwrapKey(clientcrypto.DeriveKEK(f.passphrase, salt), b[1+clientcrypto.SaltLen:])
		if err != nil {
			return nil, unreadableKey(fmt.Errorf("unwrap: %w", err))
		}
		return key, nil
	default:
		return nil, unreadableKey(errors.New("unknown format"))
	}
}

// loadOrCreateKey returns the session key, replacing a missing or unusable
// one. Save rewrites both records right after, so nothing sealed under the
// old key is lost.
func (f *FileStore) loadOrCreateKey() ([]byte, error) {
	key, err := f.loadKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, ErrUnreadable) {
		return nil, err
	}

	key, err = clientcrypto.Rand(clientcrypto.KeyLen)
	if err != nil {
		return nil, err
	}
	var out []byte
	if len(f.passphrase) == 0 {
		out = append([]byte{keyRaw}, key...)
	} else {
		salt, err := clientcrypto.Rand(clientcrypto.SaltLen)
		if err != nil {
			return nil, err
		}
		wrapped, err := clientcrypto.WrapKey(clientcrypto.DeriveKEK(f.passphrase, salt), key)
		if err != nil {
			return nil, err
		}
		out = append(append([]byte{keyWrapped}, salt...), wrapped...)
	}
	if err := writeFileAtomic(f.path(keyFileName), out); err != nil {
		return nil, err
	}
	return key, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
