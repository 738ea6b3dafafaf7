package database

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

// InitSchema creates the necessary database tables if they don't exist
func InitSchema(db *sql.DB) error {
	log.Info("Initializing pothole database schema...")

	// Raw GPS fixes, kept for track reconstruction and debugging
	gpsTableSQL := `
	CREATE TABLE IF NOT EXISTS gps_locations(
		id INT NOT NULL AUTO_INCREMENT,
		latitude DECIMAL(9,6) NOT NULL,
		longitude DECIMAL(9,6) NOT NULL,
		altitude DOUBLE,
		accuracy DOUBLE,
		captured_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX captured_at_index (captured_at)
	)`

	if _, err := db.Exec(gpsTableSQL); err != nil {
		return fmt.Errorf("failed to create gps_locations table: %w", err)
	}
	log.Info("Gps_locations table created/verified")

	// One row per confirmed pothole; the unique key makes saves idempotent
	reportsTableSQL := `
	CREATE TABLE IF NOT EXISTS reports(
		id INT NOT NULL AUTO_INCREMENT,
		location_id INT NOT NULL,
		latitude DECIMAL(9,6) NOT NULL,
		longitude DECIMAL(9,6) NOT NULL,
		severity_level ENUM('low', 'medium', 'high', 'critical') NOT NULL,
		severity_score DOUBLE NOT NULL,
		confidence DOUBLE NOT NULL,
		street VARCHAR(255),
		city VARCHAR(255),
		region VARCHAR(255),
		country VARCHAR(255),
		image_ref VARCHAR(255),
		detected_at TIMESTAMP NOT NULL,
		processed BOOL NOT NULL DEFAULT false,
		notification_sent BOOL NOT NULL DEFAULT false,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY location_time_unique (latitude, longitude, detected_at),
		INDEX detected_at_index (detected_at),
		INDEX severity_index (severity_level),
		INDEX processed_index (processed)
	)`

	if _, err := db.Exec(reportsTableSQL); err != nil {
		return fmt.Errorf("failed to create reports table: %w", err)
	}
	log.Info("Reports table created/verified")

	// Bounding box and depth data behind each report
	detectionsTableSQL := `
	CREATE TABLE IF NOT EXISTS detections(
		id INT NOT NULL AUTO_INCREMENT,
		report_id INT NOT NULL,
		x1 INT NOT NULL,
		y1 INT NOT NULL,
		x2 INT NOT NULL,
		y2 INT NOT NULL,
		area_px DOUBLE NOT NULL,
		depth_proxy DOUBLE NOT NULL,
		confidence DOUBLE NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		INDEX report_id_index (report_id)
	)`

	if _, err := db.Exec(detectionsTableSQL); err != nil {
		return fmt.Errorf("failed to create detections table: %w", err)
	}
	log.Info("Detections table created/verified")

	log.Info("Pothole database schema initialization completed")
	return nil
}
