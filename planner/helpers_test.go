package planner_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/tripdb/internal/keys"
	"github.com/jacentio/tripdb/internal/memddb"
	"github.com/jacentio/tripdb/planner"
	"github.com/jacentio/tripdb/store"
)

type fixture struct {
	svc   *planner.Service
	table *memddb.Table
	store *store.Store
}

func newFixture(t *testing.T, transactional bool, opts ...memddb.Option) fixture {
	t.Helper()
	cfg := store.DefaultConfig()
	cfg.Transactional = transactional

	opts = append([]memddb.Option{
		memddb.WithIndex(cfg.TripChildrenIndex, keys.AttrGSI1),
		memddb.WithIndex(cfg.UserTripsIndex, keys.AttrGSI2),
	}, opts...)
	table := memddb.New(cfg.TableName, opts...)
	st := store.New(table, cfg)

	svc := planner.New(st, nil)
	var n int
	svc.SetNewIDForTest(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	return fixture{svc: svc, table: table, store: st}
}

type userProfile struct {
	PK       string         `dynamodbav:"PK"`
	SK       string         `dynamodbav:"SK"`
	UserData map[string]any `dynamodbav:"user_data"`
}

func (u userProfile) EntityKey() keys.Key { return keys.Key{PK: u.PK, SK: u.SK} }

// seedUser writes a profile item the way the external user service does.
func (f fixture) seedUser(t *testing.T, userID, name string) {
	t.Helper()
	l := keys.UserLayout(userID)
	require.NoError(t, f.store.Put(context.Background(), userProfile{
		PK:       l.PK,
		SK:       l.SK,
		UserData: map[string]any{"name": name},
	}))
}

type membership struct {
	PK   string `dynamodbav:"PK"`
	SK   string `dynamodbav:"SK"`
	GSI1 string `dynamodbav:"GSI1"`
}

func (m membership) EntityKey() keys.Key { return keys.Key{PK: m.PK, SK: m.SK} }

// join adds a membership record for a non-owner.
func (f fixture) join(t *testing.T, userID, tripID string) {
	t.Helper()
	l := keys.MembershipLayout(userID, tripID)
	require.NoError(t, f.store.Put(context.Background(), membership{PK: l.PK, SK: l.SK, GSI1: l.GSI1}))
}

// failDelete fails the DeleteItem call for key.
func failDelete(key keys.Key, err error) memddb.Hook {
	return func(op string, input any) error {
		in, ok := input.(*dynamodb.DeleteItemInput)
		if !ok {
			return nil
		}
		pk, _ := in.Key[keys.AttrPK].(*types.AttributeValueMemberS)
		sk, _ := in.Key[keys.AttrSK].(*types.AttributeValueMemberS)
		if pk != nil && sk != nil && pk.Value == key.PK && sk.Value == key.SK {
			return err
		}
		return nil
	}
}

// failOp fails every call of op.
func failOp(op string, err error) memddb.Hook {
	return func(got string, _ any) error {
		if got == op {
			return err
		}
		return nil
	}
}
