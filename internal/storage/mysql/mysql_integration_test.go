//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"golang.org/x/sync/errgroup"

	"travel_companion/internal/app"
	"travel_companion/internal/domain"
	mysqlrepo "travel_companion/internal/storage/mysql"
)

func migrationsDir() string {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Isolated MySQL; Docker picks a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unreachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=travel",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/travel?parseTime=true&multiStatements=true&clientFoundRows=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func day(s string) time.Time {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRepo_MySQL_BookAndCancel(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	if err := repo.UpsertHotel(ctx, domain.Hotel{
		ID: 501, Name: "Harbour View", Location: "Lisbon, PT",
		PricePerNight: 120, Rating: 4.5, TotalRooms: 2, AvailableRooms: 2,
		LastUpdated: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("UpsertHotel: %v", err)
	}

	bookings := app.NewBookingService(repo, nil, nil, 0)
	stay, _ := domain.NewStay(day("2025-06-01"), day("2025-06-04"))

	first, err := bookings.Book(ctx, app.BookRequest{HotelID: 501, UserID: 1, Stay: stay})
	if err != nil {
		t.Fatalf("first Book: %v", err)
	}
	second, err := bookings.Book(ctx, app.BookRequest{HotelID: 501, UserID: 2, Stay: stay})
	if err != nil {
		t.Fatalf("second Book: %v", err)
	}
	if *first.RoomNumber != 1 || *second.RoomNumber != 2 {
		t.Fatalf("rooms = %d, %d; want 1, 2", *first.RoomNumber, *second.RoomNumber)
	}
	if _, err := bookings.Book(ctx, app.BookRequest{HotelID: 501, UserID: 3, Stay: stay}); !errors.Is(err, domain.ErrNoAvailability) {
		t.Fatalf("third Book: want ErrNoAvailability, got %v", err)
	}

	h, err := repo.GetHotel(ctx, 501)
	if err != nil {
		t.Fatalf("GetHotel: %v", err)
	}
	if h.AvailableRooms != 0 {
		t.Fatalf("available_rooms = %d, want 0", h.AvailableRooms)
	}

	if ok, err := bookings.Cancel(ctx, first.ID); err != nil || !ok {
		t.Fatalf("Cancel: %v, %v", ok, err)
	}
	rows, err := repo.LedgerRange(ctx, 501, stay.CheckIn, stay.CheckOut)
	if err != nil {
		t.Fatalf("LedgerRange: %v", err)
	}
	nights := domain.IndexNights(rows)
	for _, n := range stay.Nights() {
		if !nights.Available(n, 1) || nights.Available(n, 2) {
			t.Fatalf("night %s: room1 free=%v room2 free=%v", n.Format(domain.DateLayout), nights.Available(n, 1), nights.Available(n, 2))
		}
	}

	// The released room is reusable by the next booking.
	again, err := bookings.Book(ctx, app.BookRequest{HotelID: 501, UserID: 3, Stay: stay})
	if err != nil {
		t.Fatalf("rebook: %v", err)
	}
	if *again.RoomNumber != 1 {
		t.Fatalf("rebook room = %d, want 1", *again.RoomNumber)
	}

	list, err := repo.ListBookings(ctx, 3)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListBookings: %v, %d", err, len(list))
	}
}

// First bookings of a not-yet-stored hotel race to create it. They must queue
// on the hotel row; none may surface an InnoDB deadlock.
func TestRepo_MySQL_ConcurrentMaterializingBookings(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	svc := app.NewBookingService(repo, nil, nil, 3)
	ctx := context.Background()

	stay, err := domain.ParseStay("2025-10-01", "2025-10-03")
	if err != nil {
		t.Fatal(err)
	}
	rec := &domain.Recommendation{ID: 9001, Name: "Atlas Lodge", Location: "Imlil, MA", Price: 70, Rating: 4.6}

	const clients = 8
	errs := make([]error, clients)
	var g errgroup.Group
	for i := 0; i < clients; i++ {
		g.Go(func() error {
			_, errs[i] = svc.Book(ctx, app.BookRequest{HotelID: rec.ID, UserID: int64(i + 1), Stay: stay, Recommendation: rec})
			return nil
		})
	}
	_ = g.Wait()

	booked := 0
	for i, err := range errs {
		switch {
		case err == nil:
			booked++
		case domain.Declined(err):
		default:
			t.Fatalf("client %d: unexpected error %v", i, err)
		}
	}
	if booked != 3 {
		t.Fatalf("booked = %d, want 3 (one per room)", booked)
	}
	h, err := repo.GetHotel(ctx, rec.ID)
	if err != nil {
		t.Fatal(err)
	}
	if h.TotalRooms != 3 || h.AvailableRooms != 0 {
		t.Fatalf("hotel = %+v", h)
	}
}
