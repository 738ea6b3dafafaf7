package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"

	"pothole-service/config"
	"pothole-service/geo"
	"pothole-service/models"
)

// ReportStore handles all pothole report persistence.
type ReportStore struct {
	db *sql.DB
}

// NewReportStore opens a pooled MySQL connection from config.
func NewReportStore(cfg *config.Config) (*ReportStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Infof("Database connected to %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	return &ReportStore{db: db}, nil
}

// NewReportStoreWithDB wraps an existing connection, used by tests.
func NewReportStoreWithDB(db *sql.DB) *ReportStore {
	return &ReportStore{db: db}
}

// DB exposes the underlying handle for schema initialization.
func (s *ReportStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

// SaveReport persists one confirmed pothole as a location row, a report
// row and a detection row, in a single transaction. Saving the same
// (latitude, longitude, detected_at) twice is a no-op: the second call
// returns (false, nil) and leaves the database unchanged.
func (s *ReportStore) SaveReport(ctx context.Context, r *models.Report, d models.Detection) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	locResult, err := tx.ExecContext(ctx, `
		INSERT INTO gps_locations (latitude, longitude, altitude, accuracy, captured_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.Location.Latitude, r.Location.Longitude, r.Location.Altitude,
		r.Location.Accuracy, r.Location.CapturedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert gps location: %w", err)
	}
	locationID, err := locResult.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read location id: %w", err)
	}

	repResult, err := tx.ExecContext(ctx, `
		INSERT IGNORE INTO reports
			(location_id, latitude, longitude, severity_level, severity_score,
			 confidence, street, city, region, country, image_ref, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		locationID, r.Location.Latitude, r.Location.Longitude,
		string(r.Severity.Level), r.Severity.Score, r.Confidence,
		r.Place.Street, r.Place.City, r.Place.Region, r.Place.Country,
		r.ImageRef, r.DetectedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert report: %w", err)
	}
	affected, err := repResult.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		// Unique key hit: already saved. Roll back the location row too.
		return false, nil
	}
	reportID, err := repResult.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("failed to read report id: %w", err)
	}
	r.Seq = reportID

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO detections (report_id, x1, y1, x2, y2, area_px, depth_proxy, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		reportID, d.X1, d.Y1, d.X2, d.Y2, d.Area, d.DepthProxy, d.Confidence); err != nil {
		return false, fmt.Errorf("failed to insert detection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit report: %w", err)
	}
	return true, nil
}

const reportColumns = `
	id, latitude, longitude, severity_level, severity_score, confidence,
	street, city, region, country, image_ref, detected_at,
	processed, notification_sent, created_at, updated_at`

func scanReport(rows *sql.Rows) (models.Report, error) {
	var r models.Report
	var level string
	err := rows.Scan(&r.Seq, &r.Location.Latitude, &r.Location.Longitude,
		&level, &r.Severity.Score, &r.Confidence,
		&r.Place.Street, &r.Place.City, &r.Place.Region, &r.Place.Country,
		&r.ImageRef, &r.DetectedAt,
		&r.Processed, &r.NotificationSent, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return models.Report{}, err
	}
	r.Severity.Level = models.SeverityLevel(level)
	r.Location.CapturedAt = r.DetectedAt
	return r, nil
}

func collectReports(rows *sql.Rows) ([]models.Report, error) {
	defer rows.Close()
	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// GetReports returns the most recent reports, newest first.
func (s *ReportStore) GetReports(ctx context.Context, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY detected_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	return collectReports(rows)
}

// GetReportsByArea returns reports within radiusKM of the given point.
// A bounding box narrows the scan in SQL, exact distance filters the rest.
func (s *ReportStore) GetReportsByArea(ctx context.Context, lat, lon, radiusKM float64) ([]models.Report, error) {
	latDelta, lonDelta := geo.BoundingBox(lat, radiusKM)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE latitude BETWEEN ? AND ?
		  AND longitude BETWEEN ? AND ?
		ORDER BY detected_at DESC`,
		lat-latDelta, lat+latDelta, lon-lonDelta, lon+lonDelta)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by area: %w", err)
	}
	candidates, err := collectReports(rows)
	if err != nil {
		return nil, err
	}

	reports := []models.Report{}
	for _, r := range candidates {
		if geo.DistanceMeters(lat, lon, r.Location.Latitude, r.Location.Longitude) <= radiusKM*1000 {
			reports = append(reports, r)
		}
	}
	return reports, nil
}

// GetReportsBySeverity returns the most recent reports of one level.
func (s *ReportStore) GetReportsBySeverity(ctx context.Context, level models.SeverityLevel, limit int) ([]models.Report, error) {
	if !models.ValidSeverityLevel(string(level)) {
		return nil, fmt.Errorf("invalid severity level: %q", level)
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE severity_level = ?
		ORDER BY detected_at DESC
		LIMIT ?`, string(level), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports by severity: %w", err)
	}
	return collectReports(rows)
}

// GetStatistics aggregates report counts, severity distribution, mean
// confidence and detection rate over the last windowDays days.
func (s *ReportStore) GetStatistics(ctx context.Context, windowDays int) (*models.Stats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	stats := &models.Stats{
		BySeverity: map[string]int{},
		WindowDays: windowDays,
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT severity_level, COUNT(*)
		FROM reports
		WHERE detected_at >= NOW() - INTERVAL ? DAY
		GROUP BY severity_level`, windowDays)
	if err != nil {
		return nil, fmt.Errorf("failed to query severity counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, fmt.Errorf("failed to scan severity count: %w", err)
		}
		stats.BySeverity[level] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate severity counts: %w", err)
	}

	var avgConfidence sql.NullFloat64
	var mostRecent sql.NullTime
	err = s.db.QueryRowContext(ctx, `
		SELECT AVG(confidence), MAX(detected_at)
		FROM reports
		WHERE detected_at >= NOW() - INTERVAL ? DAY`, windowDays).
		Scan(&avgConfidence, &mostRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to query report aggregates: %w", err)
	}
	if avgConfidence.Valid {
		stats.AvgConfidence = avgConfidence.Float64
	}
	if mostRecent.Valid {
		t := mostRecent.Time
		stats.MostRecent = &t
	}
	stats.PerHour = float64(stats.Total) / (float64(windowDays) * 24)

	return stats, nil
}

// MarkProcessed flags a report as processed.
func (s *ReportStore) MarkProcessed(ctx context.Context, seq int64) error {
	return s.markFlag(ctx, seq, "processed")
}

// MarkNotified flags a report as having had its notification sent.
func (s *ReportStore) MarkNotified(ctx context.Context, seq int64) error {
	return s.markFlag(ctx, seq, "notification_sent")
}

func (s *ReportStore) markFlag(ctx context.Context, seq int64, column string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE reports SET "+column+" = true WHERE id = ?", seq)
	if err != nil {
		return fmt.Errorf("failed to update report %d: %w", seq, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %d not found", seq)
	}
	return nil
}

// CleanupOldReports deletes reports and their rows older than
// retentionDays, returning the number of reports removed.
func (s *ReportStore) CleanupOldReports(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE d FROM detections d
		JOIN reports r ON r.id = d.report_id
		WHERE r.detected_at < NOW() - INTERVAL ? DAY`, retentionDays); err != nil {
		return 0, fmt.Errorf("failed to delete old detections: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM reports
		WHERE detected_at < NOW() - INTERVAL ? DAY`, retentionDays)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old reports: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM gps_locations
		WHERE captured_at < NOW() - INTERVAL ? DAY`, retentionDays); err != nil {
		return 0, fmt.Errorf("failed to delete old gps locations: %w", err)
	}

	if deleted > 0 {
		log.Infof("Retention sweep removed %d reports older than %d days", deleted, retentionDays)
	}
	return deleted, nil
}
