package storage

import (
	"path/filepath"
	"testing"

	"futures_go/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	s, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestSaveAndLoadSnapshot(t *testing.T) {
	s := setupTestDB(t)

	positions := []domain.SnapshotPosition{
		{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 5, ShortYdVolume: 0},
		{Code: "IF2406.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 2, ShortYdVolume: 3},
	}
	if err := s.SaveSnapshot("20240603", positions); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	got, found, err := s.LoadSnapshot("20240603")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !found {
		t.Fatal("expected snapshot to be found")
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(got))
	}
	// ordered by code
	if got[0].Code != "IF2406.CFFEX" || got[0].ShortYdVolume != 3 {
		t.Errorf("unexpected first row: %+v", got[0])
	}
	if got[1].Market != domain.MarketSHFE || got[1].LongYdVolume != 5 {
		t.Errorf("unexpected second row: %+v", got[1])
	}
}

func TestSaveSnapshot_FirstWins(t *testing.T) {
	s := setupTestDB(t)

	first := []domain.SnapshotPosition{{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 5}}
	later := []domain.SnapshotPosition{{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 9}}

	if err := s.SaveSnapshot("20240603", first); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := s.SaveSnapshot("20240603", later); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}

	got, _, _ := s.LoadSnapshot("20240603")
	if len(got) != 1 || got[0].LongYdVolume != 5 {
		t.Errorf("expected pre-market snapshot to be kept, got %+v", got)
	}
}

func TestSaveSnapshot_LaterSnapshotAddsNoInstruments(t *testing.T) {
	s := setupTestDB(t)

	first := []domain.SnapshotPosition{{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 5}}
	later := []domain.SnapshotPosition{
		{Code: "rb2410.SHFE", Market: domain.MarketSHFE, LongYdVolume: 5},
		{Code: "m2409.DCE", Market: domain.MarketDCE, LongYdVolume: 3},
	}
	s.SaveSnapshot("20240603", first)
	s.SaveSnapshot("20240603", later)

	got, _, _ := s.LoadSnapshot("20240603")
	if len(got) != 1 || got[0].Code != "rb2410.SHFE" {
		t.Errorf("instruments opened intraday must not join the pre-market snapshot, got %+v", got)
	}
}

func TestSaveSnapshot_FlatAccount(t *testing.T) {
	s := setupTestDB(t)

	if err := s.SaveSnapshot("20240603", nil); err != nil {
		t.Fatalf("SaveSnapshot of a flat account failed: %v", err)
	}
	// restart mid-day: the bridge now reports today's opens as positions
	current := []domain.SnapshotPosition{{Code: "m2409.DCE", Market: domain.MarketDCE, LongYdVolume: 5}}
	if err := s.SaveSnapshot("20240603", current); err != nil {
		t.Fatalf("second SaveSnapshot failed: %v", err)
	}

	got, found, err := s.LoadSnapshot("20240603")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !found {
		t.Fatal("flat snapshot should be found")
	}
	if len(got) != 0 {
		t.Errorf("expected the flat pre-market snapshot, got %+v", got)
	}
}

func TestLoadSnapshot_Missing(t *testing.T) {
	s := setupTestDB(t)

	got, found, err := s.LoadSnapshot("19700101")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if found || got != nil {
		t.Errorf("expected no snapshot, got %+v (found=%v)", got, found)
	}
}

func TestDeleteSnapshotsBefore(t *testing.T) {
	s := setupTestDB(t)
	pos := []domain.SnapshotPosition{{Code: "IF2406.CFFEX", Market: domain.MarketCFFEX, LongYdVolume: 1}}
	s.SaveSnapshot("20240531", pos)
	s.SaveSnapshot("20240603", pos)

	n, err := s.DeleteSnapshotsBefore("20240603")
	if err != nil {
		t.Fatalf("DeleteSnapshotsBefore failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted row, got %d", n)
	}
	if got, _, _ := s.LoadSnapshot("20240603"); len(got) != 1 {
		t.Error("current day snapshot should remain")
	}
	if _, found, _ := s.LoadSnapshot("20240531"); found {
		t.Error("old day marker should be removed")
	}
}

func TestRecordRejection(t *testing.T) {
	s := setupTestDB(t)

	req := domain.OrderRequest{Code: "IF2406.CFFEX", Side: domain.SideBuy, OcFlag: domain.OcAuto, Volume: 10}
	rr := &domain.RiskRejection{Code: "IF2406.CFFEX", Class: "IF", Attempted: 10, Current: 95, Cap: 100}

	if err := s.RecordRejection("20240603", req, rr); err != nil {
		t.Fatalf("RecordRejection failed: %v", err)
	}

	rows, err := s.Rejections("20240603")
	if err != nil {
		t.Fatalf("Rejections failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 rejection, got %d", len(rows))
	}
	if rows[0].Side != "BUY" || rows[0].OcFlag != "AUTO" || rows[0].Current != 95 {
		t.Errorf("unexpected row: %+v", rows[0])
	}
}
