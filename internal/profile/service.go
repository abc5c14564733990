// Package profile manages saved connection profiles: named connection
// strings the console can target as "profile:<id>".
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/luisdotcom/db-hub/internal/dbconn"
	"github.com/luisdotcom/db-hub/internal/dialect"
	"github.com/luisdotcom/db-hub/internal/store"
)

const unknownVersion = "Unknown"

// ErrNotFound is returned for unknown profile ids.
var ErrNotFound = errors.New("connection profile not found")

// ErrDuplicateName is returned when another profile already uses the name.
var ErrDuplicateName = errors.New("connection profile name already exists")

// ValidationError reports an unusable profile payload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Profile is a saved connection as shown to clients, password redacted.
type Profile struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	ConnectionString string    `json:"connection_string"`
	Version          string    `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Input creates or patches a profile. Nil fields are left unchanged on update.
type Input struct {
	Name             *string `json:"name"`
	Type             *string `json:"type"`
	ConnectionString *string `json:"connection_string"`
}

// VersionProber reports the server version behind a target.
type VersionProber interface {
	ServerVersion(ctx context.Context, t dbconn.Target) (string, error)
}

// Options tunes a Service.
type Options struct {
	// Secrets, when set, receives passwords so they are not written to the
	// profile database.
	Secrets      dbconn.SecretStore
	ProbeTimeout time.Duration
}

// Service is the profile store.
type Service struct {
	repo    *store.ConnectionRepo
	prober  VersionProber
	secrets dbconn.SecretStore
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo *store.ConnectionRepo, prober VersionProber, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	return &Service{repo: repo, prober: prober, secrets: opts.Secrets, timeout: opts.ProbeTimeout, logger: logger}
}

func secretKey(id int64) string { return fmt.Sprintf("profile-%d", id) }

// List returns every saved profile ordered by name.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(recs))
	for _, r := range recs {
		out = append(out, toProfile(r))
	}
	return out, nil
}

// Get returns one profile.
func (s *Service) Get(ctx context.Context, id int64) (Profile, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return toProfile(rec), nil
}

// Create validates in, probes the server version and stores the profile. An
// unreachable server is stored with version "Unknown".
func (s *Service) Create(ctx context.Context, in Input) (Profile, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return Profile{}, &ValidationError{Field: "name", Message: "is required"}
	}
	if in.ConnectionString == nil {
		return Profile{}, &ValidationError{Field: "connection_string", Message: "is required"}
	}
	d, err := classify(in.Type, *in.ConnectionString)
	if err != nil {
		return Profile{}, err
	}

	rec := store.ConnectionRecord{
		Name:             strings.TrimSpace(*in.Name),
		Dialect:          string(d),
		ConnectionString: *in.ConnectionString,
		Version:          s.probe(ctx, *in.ConnectionString),
	}
	password := ""
	if s.secrets != nil {
		if rec.ConnectionString, password, err = dbconn.SplitPassword(rec.ConnectionString); err != nil {
			return Profile{}, err
		}
		rec.SecretInKeyring = password != ""
	}

	rec, err = s.repo.Create(ctx, rec)
	if err != nil {
		return Profile{}, mapStoreErr(err)
	}
	if rec.SecretInKeyring {
		if err := s.secrets.Save(secretKey(rec.ID), password); err != nil {
			_ = s.repo.Delete(ctx, rec.ID)
			return Profile{}, fmt.Errorf("store password: %w", err)
		}
	}
	s.logger.Info("connection profile created", "id", rec.ID, "name", rec.Name, "dialect", rec.Dialect)
	return toProfile(rec), nil
}

// Update patches profile id. A new connection string is probed again.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Profile, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return Profile{}, &ValidationError{Field: "name", Message: "must not be empty"}
		}
		rec.Name = strings.TrimSpace(*in.Name)
	}

	password := ""
	newSecret := false
	if in.ConnectionString != nil {
		d, err := classify(in.Type, *in.ConnectionString)
		if err != nil {
			return Profile{}, err
		}
		rec.Dialect = string(d)
		rec.ConnectionString = *in.ConnectionString
		rec.Version = s.probe(ctx, rec.ConnectionString)
		rec.SecretInKeyring = false
		if s.secrets != nil {
			if rec.ConnectionString, password, err = dbconn.SplitPassword(rec.ConnectionString); err != nil {
				return Profile{}, err
			}
			rec.SecretInKeyring = password != ""
			newSecret = true
		}
	} else if in.Type != nil {
		d, err := classify(in.Type, rec.ConnectionString)
		if err != nil {
			return Profile{}, err
		}
		rec.Dialect = string(d)
	}

	if newSecret && rec.SecretInKeyring {
		if err := s.secrets.Save(secretKey(id), password); err != nil {
			return Profile{}, fmt.Errorf("store password: %w", err)
		}
	}
	rec, err = s.repo.Update(ctx, rec)
	if err != nil {
		return Profile{}, mapStoreErr(err)
	}
	if newSecret && !rec.SecretInKeyring {
		_ = s.secrets.Delete(secretKey(id))
	}
	return toProfile(rec), nil
}

// Delete removes profile id and any stored password.
func (s *Service) Delete(ctx context.Context, id int64) error {
	rec, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreErr(err)
	}
	if rec.SecretInKeyring && s.secrets != nil {
		if err := s.secrets.Delete(secretKey(id)); err != nil {
			s.logger.Warn("failed to delete stored password", "id", id, "error", err)
		}
	}
	return nil
}

// ConnectionString returns the full connection string of profile id, with the
// stored password put back.
func (s *Service) ConnectionString(ctx context.Context, id int64) (string, error) {
	rec, err := s.get(ctx, id)
	if err != nil {
		return "", err
	}
	if !rec.SecretInKeyring {
		return rec.ConnectionString, nil
	}
	if s.secrets == nil {
		return "", fmt.Errorf("profile %d keeps its password in the keyring, which is disabled", id)
	}
	pw, err := s.secrets.Load(secretKey(id))
	if err != nil {
		return "", fmt.Errorf("load password: %w", err)
	}
	return dbconn.WithPassword(rec.ConnectionString, pw)
}

func (s *Service) get(ctx context.Context, id int64) (store.ConnectionRecord, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return store.ConnectionRecord{}, mapStoreErr(err)
	}
	return rec, nil
}

func (s *Service) probe(ctx context.Context, raw string) string {
	if s.prober == nil {
		return unknownVersion
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	v, err := s.prober.ServerVersion(ctx, dbconn.Target{Name: dbconn.CustomTarget, ConnectionString: raw})
	if err != nil || v == "" {
		s.logger.Debug("version probe failed", "connection", dbconn.Redact(raw), "error", err)
		return unknownVersion
	}
	return v
}

// classify checks raw and, when typ is given, that it agrees with the scheme.
func classify(typ *string, raw string) (dialect.Dialect, error) {
	d, err := dbconn.ClassifyURL(raw)
	if err != nil {
		return "", err
	}
	if typ != nil && strings.TrimSpace(*typ) != "" {
		want, err := dialect.Parse(*typ)
		if err != nil {
			return "", &ValidationError{Field: "type", Message: err.Error()}
		}
		if want != d {
			return "", &ValidationError{
				Field:   "type",
				Message: fmt.Sprintf("%s does not match a %s connection string", want, d),
			}
		}
	}
	return d, nil
}

func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrDuplicateName):
		return ErrDuplicateName
	}
	return err
}

func toProfile(r store.ConnectionRecord) Profile {
	return Profile{
		ID:               r.ID,
		Name:             r.Name,
		Type:             r.Dialect,
		ConnectionString: dbconn.Redact(r.ConnectionString),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}
