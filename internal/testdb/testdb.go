// Package testdb opens isolated in-memory sqlite databases carrying the
// groupbuy schema for repository and engine tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const schema = `
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  business_name TEXT,
  role TEXT NOT NULL DEFAULT 'member',
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE deals (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  description TEXT,
  distributor_id TEXT NOT NULL,
  sizes TEXT NOT NULL DEFAULT '[]',
  status TEXT NOT NULL DEFAULT 'active',
  bulk_action INTEGER NOT NULL DEFAULT 0,
  bulk_status TEXT,
  total_sold INTEGER NOT NULL DEFAULT 0,
  total_revenue TEXT NOT NULL DEFAULT '0',
  commitment_start_at DATETIME,
  commitment_end_at DATETIME,
  deal_start_at DATETIME,
  deal_end_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE deal_decision_changes (
  id TEXT PRIMARY KEY,
  deal_id TEXT NOT NULL,
  previous_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  reason TEXT NOT NULL,
  notes TEXT,
  changed_by TEXT NOT NULL,
  changed_at DATETIME NOT NULL
);
CREATE TABLE commitments (
  id TEXT PRIMARY KEY,
  deal_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  size_commitments TEXT NOT NULL DEFAULT '[]',
  quantity INTEGER NOT NULL DEFAULT 0,
  price_per_unit TEXT NOT NULL DEFAULT '0',
  total_price TEXT NOT NULL DEFAULT '0',
  status TEXT NOT NULL DEFAULT 'pending',
  distributor_response TEXT,
  modified_by_distributor INTEGER NOT NULL DEFAULT 0,
  modified_size_commitments TEXT,
  modified_total_price TEXT,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE commitment_status_changes (
  id TEXT PRIMARY KEY,
  commitment_id TEXT NOT NULL,
  deal_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  deal_name TEXT NOT NULL,
  distributor_name TEXT NOT NULL DEFAULT '',
  distributor_email TEXT NOT NULL DEFAULT '',
  previous_status TEXT NOT NULL,
  new_status TEXT NOT NULL,
  distributor_response TEXT,
  commitment_details TEXT,
  processed_by TEXT NOT NULL,
  processed_by_id TEXT NOT NULL,
  processed_for_email INTEGER NOT NULL DEFAULT 0,
  email_sent_at DATETIME,
  claim_token TEXT,
  claimed_at DATETIME,
  created_at DATETIME
);`

// Open returns a fresh database private to the calling test.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Exec(schema).Error)
	return db
}
