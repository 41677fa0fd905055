// Seed fills the patient journal with demo data for local development:
// a few symptom entries and randomized device recordings spread over the
// last 48 hours.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/maksymlunov/Strangers-2025/internal/config"
	"github.com/maksymlunov/Strangers-2025/internal/domain"
	"github.com/maksymlunov/Strangers-2025/internal/patient"
	"github.com/maksymlunov/Strangers-2025/internal/store"
)

type seedComplaint struct {
	message string
	part    domain.BodyPart
	advice  string
}

var complaints = []seedComplaint{
	{
		message: "Dull headache since the morning",
		part:    domain.BodyPartHead,
		advice:  "Drink water and take a break from screens every hour.",
	},
	{
		message: "Lower back pain when bending",
		part:    domain.BodyPartBack,
		advice:  "Avoid heavy lifting and try gentle stretching.",
	},
	{
		message: "Knee clicks when climbing stairs",
		part:    domain.BodyPartKnee,
		advice:  "Warm up before exercise and skip deep squats for a few days.",
	},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	repo, err := openRepository(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	ctx := context.Background()
	if err := repo.Ping(ctx); err != nil {
		slog.Error("Storage health check failed", "error", err)
		os.Exit(1)
	}

	session := patient.NewSession(repo)
	now := time.Now().UTC()

	if err := seedSymptoms(ctx, session, now); err != nil {
		slog.Error("Failed to seed symptoms", "error", err)
		os.Exit(1)
	}
	if err := seedTelemetry(ctx, session, now); err != nil {
		slog.Error("Failed to seed telemetry", "error", err)
		os.Exit(1)
	}

	slog.Info("Seed complete",
		"symptoms", len(complaints),
		"devices", len(domain.KnownDeviceKinds()),
		"storage", cfg.StorageDriver)
}

func seedSymptoms(ctx context.Context, session *patient.Session, now time.Time) error {
	stamps := randomTimestamps(now, len(complaints))
	for i, c := range complaints {
		entry := domain.SymptomEntry{
			ID:         uuid.NewString(),
			Message:    c.message,
			BodyPart:   c.part,
			ReportedAt: stamps[i],
			Advice:     c.advice,
		}
		if err := session.Ledger.Append(ctx, entry); err != nil {
			return fmt.Errorf("append %q: %w", c.message, err)
		}
	}
	return nil
}

func seedTelemetry(ctx context.Context, session *patient.Session, now time.Time) error {
	for _, kind := range domain.KnownDeviceKinds() {
		if err := session.Telemetry.Register(ctx, kind); err != nil {
			return fmt.Errorf("register %s: %w", kind, err)
		}
		for _, stamp := range randomTimestamps(now, 3+rand.IntN(3)) {
			recording := domain.DeviceSession{
				Device:     kind,
				RecordedAt: stamp,
				Metrics:    randomMetrics(kind),
			}
			if err := session.Telemetry.AddSession(ctx, recording); err != nil {
				return fmt.Errorf("record %s session: %w", kind, err)
			}
		}
	}
	return nil
}

// randomTimestamps picks n instants within the 48 hours before now, oldest
// first so seeded entries land in chronological insertion order.
func randomTimestamps(now time.Time, n int) []time.Time {
	stamps := make([]time.Time, n)
	for i := range stamps {
		stamps[i] = now.Add(-time.Duration(rand.Int64N(int64(48 * time.Hour))))
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })
	return stamps
}

func randomMetrics(kind domain.DeviceKind) map[string]float64 {
	switch kind {
	case domain.DeviceSmartwatch:
		return map[string]float64{
			"heart_rate": float64(55 + rand.IntN(40)),
			"steps":      float64(rand.IntN(12000)),
		}
	case domain.DeviceFitnessBand:
		return map[string]float64{
			"steps":       float64(rand.IntN(15000)),
			"calories":    float64(1200 + rand.IntN(1500)),
			"sleep_hours": round1(4 + rand.Float64()*5),
		}
	case domain.DeviceBloodPressureMonitor:
		return map[string]float64{
			"systolic":  float64(105 + rand.IntN(40)),
			"diastolic": float64(65 + rand.IntN(30)),
			"pulse":     float64(58 + rand.IntN(35)),
		}
	case domain.DeviceSmartScale:
		return map[string]float64{
			"weight_kg":    round1(62 + rand.Float64()*25),
			"body_fat_pct": round1(14 + rand.Float64()*15),
		}
	default:
		return map[string]float64{"value": round1(rand.Float64() * 100)}
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func openRepository(cfg *config.Config) (store.Repository, error) {
	switch cfg.StorageDriver {
	case "sqlite":
		return store.NewSQLite(cfg.DBPath)
	case "postgres":
		return store.NewPostgres(cfg.DatabaseURL)
	case "memory":
		return nil, fmt.Errorf("seeding the memory driver is pointless, data would vanish on exit")
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.StorageDriver)
	}
}
