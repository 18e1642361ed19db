package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aptr/workshop-engine/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeRow answers one Scan call.
type fakeRow struct {
	scan func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scan(dest...) }

func boolRow(v bool) pgx.Row {
	return fakeRow{scan: func(dest ...any) error {
		*dest[0].(*bool) = v
		return nil
	}}
}

func intRow(v int) pgx.Row {
	return fakeRow{scan: func(dest ...any) error {
		*dest[0].(*int) = v
		return nil
	}}
}

func errRow(err error) pgx.Row {
	return fakeRow{scan: func(...any) error { return err }}
}

// fakeTx records whether the transaction was resolved. Unstubbed pgx.Tx
// methods panic through the nil embedded interface, which is fine: the
// repository must never reach them in these scenarios.
type fakeTx struct {
	pgx.Tx
	queryRow func(sql string) pgx.Row
	exec     func(sql string) (pgconn.CommandTag, error)

	committed  bool
	rolledBack bool
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	return t.queryRow(sql)
}

func (t *fakeTx) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	return t.exec(sql)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	tx       *fakeTx
	queryRow func(sql string) pgx.Row
	exec     func(sql string) (pgconn.CommandTag, error)
}

func (f *fakeDB) Begin(context.Context) (pgx.Tx, error) { return f.tx, nil }

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	return f.exec(sql)
}

func (f *fakeDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("unexpected Query")
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	return f.queryRow(sql)
}

// mustResolve fails the test unless the transaction ended in exactly one of
// commit or rollback. A transaction left open holds its pooled connection
// forever, so every Register/SubmitFeedback path has to resolve it.
func mustResolve(t *testing.T, tx *fakeTx, wantCommit bool) {
	t.Helper()
	if !tx.committed && !tx.rolledBack {
		t.Fatal("transaction neither committed nor rolled back: connection leaked")
	}
	if tx.committed == wantCommit {
		return
	}
	t.Fatalf("committed=%v rolledBack=%v, want commit=%v", tx.committed, tx.rolledBack, wantCommit)
}

func TestRegisterConflictRollsBackTransaction(t *testing.T) {
	tx := &fakeTx{queryRow: func(sql string) pgx.Row {
		if strings.Contains(sql, "FOR UPDATE") {
			return boolRow(false) // workshop exists, not deleted
		}
		return intRow(1) // duplicate registration
	}}
	repo := &RegistrationRepository{db: &fakeDB{tx: tx}}

	err := repo.Register(context.Background(), "ws-1", "att-1")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	mustResolve(t, tx, false)
}

func TestRegisterDeletedWorkshopRollsBackTransaction(t *testing.T) {
	tx := &fakeTx{queryRow: func(string) pgx.Row {
		return boolRow(true) // workshop soft-deleted
	}}
	repo := &RegistrationRepository{db: &fakeDB{tx: tx}}

	err := repo.Register(context.Background(), "ws-1", "att-1")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	mustResolve(t, tx, false)
}

func TestRegisterSuccessCommits(t *testing.T) {
	tx := &fakeTx{
		queryRow: func(sql string) pgx.Row {
			if strings.Contains(sql, "FOR UPDATE") {
				return boolRow(false)
			}
			return intRow(0)
		},
		exec: func(string) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}
	repo := &RegistrationRepository{db: &fakeDB{tx: tx}}

	if err := repo.Register(context.Background(), "ws-1", "att-1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	mustResolve(t, tx, true)
}

func TestSubmitFeedbackDuplicateRollsBackTransaction(t *testing.T) {
	tx := &fakeTx{queryRow: func(string) pgx.Row {
		return boolRow(true) // feedback_given already set
	}}
	repo := &RegistrationRepository{db: &fakeDB{tx: tx}}

	err := repo.SubmitFeedback(context.Background(), "att-1", "ws-1", 4, "again")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
	mustResolve(t, tx, false)
}

func TestSubmitFeedbackSuccessCommits(t *testing.T) {
	tx := &fakeTx{
		queryRow: func(string) pgx.Row { return boolRow(false) },
		exec: func(string) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 1"), nil
		},
	}
	repo := &RegistrationRepository{db: &fakeDB{tx: tx}}

	if err := repo.SubmitFeedback(context.Background(), "att-1", "ws-1", 4, "solid"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	mustResolve(t, tx, true)
}

func TestSoftDeleteFlipsLiveRow(t *testing.T) {
	db := &fakeDB{exec: func(sql string) (pgconn.CommandTag, error) {
		if !strings.Contains(sql, "AND NOT deleted") {
			t.Fatalf("delete must guard on NOT deleted, got %q", sql)
		}
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}}
	repo := &WorkshopRepository{db: db}

	if err := repo.SoftDelete(context.Background(), "ws-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSoftDeleteAlreadyDeletedIsConflict(t *testing.T) {
	db := &fakeDB{
		exec: func(string) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRow: func(string) pgx.Row { return boolRow(true) },
	}
	repo := &WorkshopRepository{db: db}

	err := repo.SoftDelete(context.Background(), "ws-1")
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestSoftDeleteMissingWorkshopIsNotFound(t *testing.T) {
	db := &fakeDB{
		exec: func(string) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("UPDATE 0"), nil
		},
		queryRow: func(string) pgx.Row { return errRow(pgx.ErrNoRows) },
	}
	repo := &WorkshopRepository{db: db}

	err := repo.SoftDelete(context.Background(), "ws-1")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
