// Package migration imports legacy MongoDB collection data into the
// Postgres row store. The legacy deployment kept one document per owned
// card with float quantities and free-form card ids; the importer
// canonicalizes ids against the catalog and batch-inserts rows, skipping
// what it cannot resolve.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pockettcg/collector/collector/database/models"
)

const defaultBatchSize = 1000

// CardResolver canonicalizes a legacy card id ("promo-a-5") to the catalog
// id ("P-A-5"). The catalog store satisfies it.
type CardResolver interface {
	ResolveID(id string) (string, bool)
}

// MongoProfile is a legacy account document.
type MongoProfile struct {
	Username   string `bson:"username"`
	Password   string `bson:"password"`
	Role       string `bson:"role"`
	FriendCode string `bson:"friend_code"`
}

// MongoUserCard is one legacy ownership document. Quantities arrive as
// float64 because the old store never distinguished ints.
type MongoUserCard struct {
	Username    string  `bson:"username"`
	CardID      string  `bson:"card_id"`
	Amount      float64 `bson:"amount"`
	MinimumKeep float64 `bson:"keep"`
	Locked      bool    `bson:"locked"`
}

// Stats counts what one migration run did.
type Stats struct {
	Profiles     int
	UserCards    int
	SkippedCards int
	StartTime    time.Time
	Duration     time.Duration
}

type Migrator struct {
	pgDB      *bun.DB
	mongoDB   *mongo.Database
	resolver  CardResolver
	userIDs   map[string]string // legacy username -> profile id
	batchSize int
	stats     Stats
}

func NewMigrator(pgDB *bun.DB, resolver CardResolver) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		resolver:  resolver,
		userIDs:   make(map[string]string),
		batchSize: defaultBatchSize,
	}
}

// SetBatchSize overrides the insert batch size.
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// Connect opens the legacy Mongo deployment and selects its database.
func (m *Migrator) Connect(ctx context.Context, uri, dbName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return fmt.Errorf("failed to connect to legacy mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("legacy mongo unreachable: %w", err)
	}
	m.mongoDB = client.Database(dbName)
	return nil
}

// Stats returns the counters of the last run.
func (m *Migrator) Stats() Stats { return m.stats }

// MigrateAll runs profiles then user cards; user cards need the profile id
// map the first pass builds.
func (m *Migrator) MigrateAll(ctx context.Context) error {
	m.stats = Stats{StartTime: time.Now()}
	if err := m.MigrateProfiles(ctx); err != nil {
		return err
	}
	if err := m.MigrateUserCards(ctx); err != nil {
		return err
	}
	m.stats.Duration = time.Since(m.stats.StartTime)
	slog.Info("legacy migration complete",
		slog.Int("profiles", m.stats.Profiles),
		slog.Int("user_cards", m.stats.UserCards),
		slog.Int("skipped", m.stats.SkippedCards),
		slog.Duration("took", m.stats.Duration))
	return nil
}

// MigrateProfiles copies legacy accounts into the profiles table.
func (m *Migrator) MigrateProfiles(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongo not configured; call Connect first")
	}
	cur, err := m.mongoDB.Collection("profiles").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy profiles: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.Profile
	for cur.Next(ctx) {
		var mp MongoProfile
		if err := cur.Decode(&mp); err != nil {
			continue
		}
		profile := convertProfile(mp)
		m.userIDs[mp.Username] = profile.ID
		batch = append(batch, profile)
		if len(batch) >= m.batchSize {
			if err := m.insertProfiles(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertProfiles(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

// MigrateUserCards copies legacy ownership documents, resolving card ids
// through the catalog and dropping rows it cannot place.
func (m *Migrator) MigrateUserCards(ctx context.Context) error {
	if m.mongoDB == nil {
		return fmt.Errorf("mongo not configured; call Connect first")
	}
	cur, err := m.mongoDB.Collection("usercards").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to query legacy usercards: %w", err)
	}
	defer cur.Close(ctx)

	var batch []*models.UserCard
	for cur.Next(ctx) {
		var mc MongoUserCard
		if err := cur.Decode(&mc); err != nil {
			continue
		}
		row, ok := m.convertUserCard(mc)
		if !ok {
			m.stats.SkippedCards++
			continue
		}
		batch = append(batch, row)
		if len(batch) >= m.batchSize {
			if err := m.insertUserCards(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := cur.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		if err := m.insertUserCards(ctx, batch); err != nil {
			return err
		}
	}
	return nil
}

func convertProfile(mp MongoProfile) *models.Profile {
	role := mp.Role
	if role == "" {
		role = "user"
	}
	now := time.Now()
	return &models.Profile{
		ID:         "legacy-" + mp.Username,
		Username:   mp.Username,
		Password:   mp.Password,
		Role:       role,
		FriendCode: mp.FriendCode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// convertUserCard resolves the legacy document to a row, or reports false
// when the user or card cannot be placed.
func (m *Migrator) convertUserCard(mc MongoUserCard) (*models.UserCard, bool) {
	userID, ok := m.userIDs[mc.Username]
	if !ok {
		return nil, false
	}
	cardID, ok := m.resolver.ResolveID(mc.CardID)
	if !ok {
		return nil, false
	}
	qty := int(math.Floor(mc.Amount))
	if qty <= 0 {
		return nil, false
	}
	now := time.Now()
	return &models.UserCard{
		UserID:      userID,
		CardID:      cardID,
		Quantity:    qty,
		MinimumKeep: int(math.Floor(mc.MinimumKeep)),
		AllowTrade:  !mc.Locked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, true
}

func (m *Migrator) insertProfiles(ctx context.Context, batch []*models.Profile) error {
	_, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (username) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert profiles batch: %w", err)
	}
	m.stats.Profiles += len(batch)
	return nil
}

func (m *Migrator) insertUserCards(ctx context.Context, batch []*models.UserCard) error {
	_, err := m.pgDB.NewInsert().
		Model(&batch).
		On("CONFLICT (user_id, card_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert usercards batch: %w", err)
	}
	m.stats.UserCards += len(batch)
	return nil
}
