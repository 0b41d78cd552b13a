package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// schema holds the full table set used by the access-control services.
// Every statement is idempotent so Migrate can run on each startup when
// DB_MIGRATE is enabled.  The auth tables (users, suap_token_backups) and
// the read-model tables (actor_users, role_profiles) live in the same
// database only for deployment simplicity; they are written by different
// services and are only eventually consistent with each other.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL DEFAULT '',
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'padrao',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS suap_token_backups (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		suap_token TEXT NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_backup_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS actor_users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL UNIQUE,
		username VARCHAR(150) NOT NULL UNIQUE,
		role VARCHAR(20) NOT NULL DEFAULT 'padrao'
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS role_profiles (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		role VARCHAR(20) NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_role_profiles_user_role (user_id, role)
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS departments (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS department_coordinators (
		department_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (department_id, user_id),
		CONSTRAINT fk_dc_department FOREIGN KEY (department_id) REFERENCES departments(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS rooms (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		code VARCHAR(20) NOT NULL UNIQUE,
		name VARCHAR(100) NOT NULL,
		department_id BIGINT UNSIGNED NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'Disponível',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_room_department FOREIGN KEY (department_id) REFERENCES departments(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS room_admins (
		room_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (room_id, user_id),
		CONSTRAINT fk_ra_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS room_users (
		room_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (room_id, user_id),
		CONSTRAINT fk_ru_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS room_special_coordinators (
		room_id BIGINT UNSIGNED NOT NULL,
		user_id BIGINT UNSIGNED NOT NULL,
		PRIMARY KEY (room_id, user_id),
		CONSTRAINT fk_rsc_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS iot_devices (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		mac VARCHAR(100) NOT NULL UNIQUE,
		description VARCHAR(100) NOT NULL DEFAULT 'Porta',
		status VARCHAR(50) NOT NULL DEFAULT 'Aguardando Conexão',
		room_id BIGINT UNSIGNED NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_device_room FOREIGN KEY (room_id) REFERENCES rooms(id) ON DELETE RESTRICT
	) ENGINE=InnoDB`,

	`CREATE TABLE IF NOT EXISTS logs (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		service_name VARCHAR(50) NOT NULL,
		user_id BIGINT UNSIGNED NULL,
		level VARCHAR(20) NOT NULL DEFAULT 'INFO',
		message VARCHAR(512) NOT NULL,
		KEY idx_logs_service (service_name)
	) ENGINE=InnoDB`,
}

// Migrate applies the embedded schema statements in order.  Statements are
// idempotent, so re-running on every startup is safe.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	logger.Info("schema applied", zap.Int("statements", len(schema)))
	return nil
}
