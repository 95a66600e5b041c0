package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"savesense/internal/domain"
)

// BadgerRepository implements Repository and SessionStore using BadgerDB.
type BadgerRepository struct {
	db  *badger.DB
	log logrus.FieldLogger
	now func() time.Time
}

// NewBadgerRepository creates and initializes a new BadgerDB repository.
// It opens the database at the specified path.
func NewBadgerRepository(dbPath string, logger logrus.FieldLogger) (*BadgerRepository, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = &badgerLogger{logger.WithField("component", "badgerdb")}

	db, err := badger.Open(opts)
	if err != nil {
		logger.WithError(err).Error("Failed to open BadgerDB")
		return nil, fmt.Errorf("failed to open badger db at %s: %w", dbPath, err)
	}
	logger.Info("BadgerDB opened successfully at path: ", dbPath)

	return &BadgerRepository{
		db:  db,
		log: logger.WithField("component", "repository"),
		now: time.Now,
	}, nil
}

// Close closes the BadgerDB database connection.
func (r *BadgerRepository) Close() error {
	r.log.Info("Closing BadgerDB...")
	if err := r.db.Close(); err != nil {
		r.log.WithError(err).Error("Error closing BadgerDB")
		return err
	}
	r.log.Info("BadgerDB closed.")
	return nil
}

// entryKey creates the unique key for a user's entry.
// Format: user:{userID}:entry:{sha256(value)}
func entryKey(userID, value string) []byte {
	sum := sha256.Sum256([]byte(value))
	return []byte(fmt.Sprintf("user:%s:entry:%s", userID, hex.EncodeToString(sum[:])))
}

// userPrefix creates a key prefix for scanning all entries belonging to a user.
// Format: user:{userID}:entry:
func userPrefix(userID string) []byte {
	return []byte(fmt.Sprintf("user:%s:entry:", userID))
}

// sessionKey format: session:{chatUserID}
func sessionKey(chatUserID int64) []byte {
	return []byte(fmt.Sprintf("session:%d", chatUserID))
}

// FindOne returns the entry stored for (userID, value).
func (r *BadgerRepository) FindOne(ctx context.Context, userID, value string) (domain.SharedEntry, error) {
	var entry domain.SharedEntry
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, entryKey(userID, value), &entry)
	})
	if errors.Is(err, ErrNotFound) {
		return domain.SharedEntry{}, ErrNotFound
	}
	if err != nil {
		return domain.SharedEntry{}, fmt.Errorf("failed to look up entry: %w", err)
	}
	return entry, nil
}

// Insert stores entry if no entry exists for (UserID, Value). The existence
// check and the write happen in one transaction; concurrent inserts of the same
// pair conflict and all but one fail with ErrAlreadyExists.
func (r *BadgerRepository) Insert(ctx context.Context, entry domain.SharedEntry) (domain.SharedEntry, error) {
	log := r.log.WithFields(logrus.Fields{
		"user_id":      entry.UserID,
		"content_type": entry.ContentType,
	})

	if entry.UserID == "" || entry.Value == "" {
		return domain.SharedEntry{}, errors.New("entry requires user id and value")
	}
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	entryBytes, err := json.Marshal(entry)
	if err != nil {
		return domain.SharedEntry{}, fmt.Errorf("failed to marshal entry: %w", err)
	}

	key := entryKey(entry.UserID, entry.Value)
	err = r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry(key, entryBytes))
	})
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, badger.ErrConflict) {
		log.Debug("Entry already stored")
		return domain.SharedEntry{}, ErrAlreadyExists
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		log.Debug("Insert abandoned, context done")
		return domain.SharedEntry{}, err
	}
	if err != nil {
		log.WithError(err).Error("Failed to save entry to BadgerDB")
		return domain.SharedEntry{}, fmt.Errorf("failed to save entry: %w", err)
	}

	log.WithField("entry_id", entry.ID).Info("Entry saved successfully")
	return entry, nil
}

// ListByUser retrieves all entries for a specific user, newest first.
func (r *BadgerRepository) ListByUser(ctx context.Context, userID string) ([]domain.SharedEntry, error) {
	var entries []domain.SharedEntry

	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := userPrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry domain.SharedEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return fmt.Errorf("failed to unmarshal entry for key %s: %w", string(item.Key()), err)
				}
				entries = append(entries, entry)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.WithError(err).WithField("user_id", userID).Error("Failed to retrieve entries from BadgerDB")
		return nil, fmt.Errorf("failed to get entries for user %s: %w", userID, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries, nil
}

// Delete removes a user's entry for value.
func (r *BadgerRepository) Delete(ctx context.Context, userID, value string) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(entryKey(userID, value))
	})
	if err != nil {
		return fmt.Errorf("failed to delete entry for user %s: %w", userID, err)
	}
	r.log.WithField("user_id", userID).Info("Entry deleted")
	return nil
}

// GetSession returns the user logged in from a chat account, or ErrNotFound.
func (r *BadgerRepository) GetSession(ctx context.Context, chatUserID int64) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, sessionKey(chatUserID), &user)
	})
	if errors.Is(err, ErrNotFound) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to read session: %w", err)
	}
	return user, nil
}

// SaveSession stores or replaces the session of a chat account.
func (r *BadgerRepository) SaveSession(ctx context.Context, chatUserID int64, user domain.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(sessionKey(chatUserID), b)
	}); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// DeleteSession logs a chat account out.
func (r *BadgerRepository) DeleteSession(ctx context.Context, chatUserID int64) error {
	if err := r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(chatUserID))
	}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// --- BadgerDB Internal Logger ---

// badgerLogger adapts logrus.FieldLogger to Badger's logger interface.
type badgerLogger struct {
	logger logrus.FieldLogger
}

func (l *badgerLogger) Errorf(f string, v ...interface{}) {
	l.logger.Errorf(f, v...)
}
func (l *badgerLogger) Warningf(f string, v ...interface{}) {
	l.logger.Warningf(f, v...)
}
func (l *badgerLogger) Infof(f string, v ...interface{}) {
	l.logger.Infof(f, v...)
}
func (l *badgerLogger) Debugf(f string, v ...interface{}) {
	l.logger.Debugf(f, v...)
}
