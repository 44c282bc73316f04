package database

import (
	"database/sql"
	"fmt"
)

// Migrate ensures all required tables exist.  Statements are idempotent so
// the server can run them at every startup.  The UNIQUE keys here are load
// bearing: payments.transaction_id is the webhook deduplication boundary and
// reservations.reference_code guarantees a correlation code matches at most
// one reservation.  unreconciled_payments.transaction_id carries no unique
// key on purpose — duplicate parking is surfaced to the operator.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			role ENUM('ADMIN','AGENT') NOT NULL DEFAULT 'AGENT',
			is_active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_users_email (email)
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			KEY idx_refresh_tokens_hash (token_hash),
			CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS reservations (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			guest_name VARCHAR(255) NOT NULL,
			reference_code VARCHAR(16) NULL,
			total_amount DECIMAL(12,2) NOT NULL,
			currency CHAR(3) NOT NULL DEFAULT 'USD',
			status ENUM('pending','confirmed','canceled','completed','no_show') NOT NULL DEFAULT 'pending',
			check_in DATETIME NOT NULL,
			check_out DATETIME NOT NULL,
			notes TEXT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_reservations_reference_code (reference_code)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			reservation_id BIGINT UNSIGNED NOT NULL,
			amount DECIMAL(12,2) NOT NULL,
			currency CHAR(3) NOT NULL,
			reference_code VARCHAR(16) NULL,
			transaction_id VARCHAR(64) NULL,
			payment_date DATETIME NOT NULL,
			payment_method ENUM('wise','credit_card','bank_transfer','cash','other') NOT NULL,
			status ENUM('pending','completed','failed','refunded') NOT NULL DEFAULT 'pending',
			metadata JSON NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_payments_transaction_id (transaction_id),
			KEY idx_payments_reservation (reservation_id),
			KEY idx_payments_payment_date (payment_date),
			CONSTRAINT fk_payments_reservation FOREIGN KEY (reservation_id) REFERENCES reservations(id)
		)`,
		`CREATE TABLE IF NOT EXISTS unreconciled_payments (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			payment_data JSON NULL,
			amount DECIMAL(12,2) NOT NULL,
			currency CHAR(3) NOT NULL,
			transaction_id VARCHAR(64) NOT NULL,
			payment_date DATETIME NOT NULL,
			payment_method ENUM('wise','credit_card','bank_transfer','cash','other') NOT NULL,
			reference TEXT NOT NULL,
			status ENUM('pending_reconciliation','reconciled') NOT NULL DEFAULT 'pending_reconciliation',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			KEY idx_unreconciled_status_date (status, payment_date)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
