package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// Cookie is one browser-session cookie captured at login time.
type Cookie struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Domain   string `json:"domain"`
	Path     string `json:"path"`
	Expires  int64  `json:"expires,omitempty"`
	Secure   bool   `json:"secure"`
	HTTPOnly bool   `json:"httpOnly"`
}

// Credentials is the decrypted content of one session artifact.
type Credentials struct {
	Account       string   `json:"-"`
	WalletAddress string   `json:"walletAddress"`
	Cookies       []Cookie `json:"cookies"`
}

// Store discovers and decrypts session artifacts under a credentials
// directory. Each artifact is a sealed *.json file named after its account.
type Store struct {
	dir      string
	password string
	logger   *slog.Logger
}

// NewStore creates a Store over dir. password unlocks every artifact.
func NewStore(dir, password string, logger *slog.Logger) *Store {
	return &Store{
		dir:      dir,
		password: password,
		logger:   logger.With(slog.String("component", "session_store")),
	}
}

// Accounts lists the account names with a session artifact present, in
// lexicographic order. Ordering is deterministic so account indices stay
// stable across runs.
func (s *Store) Accounts() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("session: reading credentials dir %s: %w", s.dir, err)
	}

	var accounts []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		accounts = append(accounts, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(accounts)

	if len(accounts) == 0 {
		return nil, fmt.Errorf("session: %w: no artifacts in %s", domain.ErrNoAccounts, s.dir)
	}
	return accounts, nil
}

// Load decrypts the artifact for account and parses its credentials. A
// wallet address that is present but not a valid hex address fails the load;
// it means the artifact was captured against the wrong chain identity.
func (s *Store) Load(account string) (Credentials, error) {
	path := filepath.Join(s.dir, account+".json")

	sealed, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("session: reading artifact %s: %w", path, err)
	}

	plaintext, err := Open(sealed, s.password)
	if err != nil {
		return Credentials{}, fmt.Errorf("session: unlocking artifact %s: %w", account, err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return Credentials{}, fmt.Errorf("session: parsing credentials %s: %w", account, err)
	}
	creds.Account = account

	if creds.WalletAddress != "" && !common.IsHexAddress(creds.WalletAddress) {
		return Credentials{}, fmt.Errorf("session: artifact %s: invalid wallet address %q: %w",
			account, creds.WalletAddress, domain.ErrAuthenticationFailed)
	}
	if len(creds.Cookies) == 0 {
		return Credentials{}, fmt.Errorf("session: artifact %s has no cookies: %w",
			account, domain.ErrAuthenticationFailed)
	}

	s.logger.Debug("artifact loaded",
		slog.String("account", account),
		slog.Int("cookies", len(creds.Cookies)),
	)
	return creds, nil
}

// Save seals credentials and writes the artifact for account. Used by the
// capture tooling; the bot itself only reads.
func (s *Store) Save(creds Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("session: encoding credentials: %w", err)
	}
	sealed, err := Seal(plaintext, s.password)
	if err != nil {
		return err
	}
	path := filepath.Join(s.dir, creds.Account+".json")
	if err := os.WriteFile(path, sealed, 0o600); err != nil {
		return fmt.Errorf("session: writing artifact %s: %w", path, err)
	}
	return nil
}
