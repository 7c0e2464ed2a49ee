package storage

import "testing"

func TestIDsQuery(t *testing.T) {
	t.Parallel()

	query, args, err := idsQuery("shows").ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	if query != "SELECT id FROM shows ORDER BY id" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSubscribersQuery(t *testing.T) {
	t.Parallel()

	query, args, err := subscribersQuery().ToSql()
	if err != nil {
		t.Fatalf("ToSql error: %v", err)
	}
	if query != "SELECT email FROM users WHERE email IS NOT NULL ORDER BY email" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}
