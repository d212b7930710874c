// Package index stores the repositories and packages of one
// distribution cleanup run in an in-memory SQLite database. The
// index lives for a single run and is discarded afterwards.
package index

import (
	"database/sql"
	"fmt"
	"regexp"

	"github.com/ralt/distroclean/internal/models"
	"github.com/ralt/distroclean/internal/rpmver"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE repositories (
	repo_id   INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
	name      TEXT NOT NULL,
	arch      TEXT NOT NULL,
	path      TEXT NOT NULL,
	channel   INTEGER NOT NULL,
	readonly  BOOLEAN NOT NULL
);

CREATE TABLE packages (
	package_id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
	name       TEXT NOT NULL,
	epoch      INTEGER NOT NULL,
	version    TEXT NOT NULL,
	rel        TEXT NOT NULL,
	arch       TEXT NOT NULL,
	sourcerpm  TEXT NOT NULL,
	srpm_name  TEXT NOT NULL,
	location   TEXT NOT NULL,
	excluded   BOOLEAN NOT NULL,
	repo_id    INTEGER NOT NULL,
	FOREIGN KEY (repo_id) REFERENCES repositories(repo_id)
);

CREATE INDEX packages_by_repo ON packages(repo_id);
`

// Index is an in-memory relational store of repositories and the
// packages they contain.
type Index struct {
	db *sql.DB
}

// New opens an empty index
func New() (*Index, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}
	// every pooled connection would get its own :memory: database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database
func (ix *Index) Close() error {
	return ix.db.Close()
}

// AddRepository records a repository and returns its id
func (ix *Index) AddRepository(desc models.RepositoryDesc) (int64, error) {
	res, err := ix.db.Exec(
		`INSERT INTO repositories (name, arch, path, channel, readonly) VALUES (?, ?, ?, ?, ?)`,
		desc.Name, desc.Arch, desc.Path, int(desc.Channel), desc.Readonly)
	if err != nil {
		return 0, fmt.Errorf("failed to index repository %s.%s: %w", desc.Name, desc.Arch, err)
	}
	return res.LastInsertId()
}

// AddPackages indexes extracted package records for a repository.
// Records whose source RPM filename cannot be parsed are dropped with
// a warning; they are counted in the returned skip count. Records
// matching the exclude pattern are indexed but flagged non-removable.
func (ix *Index) AddPackages(repoID int64, records []models.PackageRecord, exclude *regexp.Regexp) (int, error) {
	tx, err := ix.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO packages (name, epoch, version, rel, arch, sourcerpm, srpm_name, location, excluded, repo_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	skipped := 0
	for _, rec := range records {
		srpmName, _, _, err := rpmver.SplitSourceRPM(rec.SourceRPM)
		if err != nil {
			invalid := &models.CleanError{Type: models.ErrInvalidMetadata, Err: err}
			logrus.Warnf("skipping invalid package %s: %v", rec.Location, invalid)
			skipped++
			continue
		}
		excluded := exclude != nil && exclude.MatchString(rec.SourceRPM)
		if _, err := stmt.Exec(rec.Name, rec.Epoch, rec.Version, rec.Release, rec.Arch,
			rec.SourceRPM, srpmName, rec.Location, excluded, repoID); err != nil {
			return skipped, fmt.Errorf("failed to index package %s: %w", rec.Location, err)
		}
	}
	return skipped, tx.Commit()
}

// Architectures returns every indexed repository architecture except
// src: source packages are never pruned.
func (ix *Index) Architectures() ([]string, error) {
	rows, err := ix.db.Query(`SELECT DISTINCT arch FROM repositories WHERE arch != 'src' ORDER BY arch`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var archs []string
	for rows.Next() {
		var arch string
		if err := rows.Scan(&arch); err != nil {
			return nil, err
		}
		archs = append(archs, arch)
	}
	return archs, rows.Err()
}

// Repository returns a single repository by id
func (ix *Index) Repository(id int64) (*models.Repository, error) {
	row := ix.db.QueryRow(
		`SELECT repo_id, name, arch, path, channel, readonly FROM repositories WHERE repo_id = ?`, id)
	var repo models.Repository
	var channel int
	if err := row.Scan(&repo.ID, &repo.Name, &repo.Arch, &repo.Path, &channel, &repo.Readonly); err != nil {
		return nil, err
	}
	repo.Channel = models.Channel(channel)
	return &repo, nil
}

// Repositories returns every indexed repository keyed by id
func (ix *Index) Repositories() (map[int64]*models.Repository, error) {
	rows, err := ix.db.Query(`SELECT repo_id, name, arch, path, channel, readonly FROM repositories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	repos := make(map[int64]*models.Repository)
	for rows.Next() {
		var repo models.Repository
		var channel int
		if err := rows.Scan(&repo.ID, &repo.Name, &repo.Arch, &repo.Path, &channel, &repo.Readonly); err != nil {
			return nil, err
		}
		repo.Channel = models.Channel(channel)
		repos[repo.ID] = &repo
	}
	return repos, rows.Err()
}

// PackagesByArch returns all packages of the repositories with the
// given architecture, ordered by source RPM name and then insertion
// order so the retention engine sees a deterministic sequence.
func (ix *Index) PackagesByArch(arch string) ([]*models.Package, error) {
	rows, err := ix.db.Query(
		`SELECT p.package_id, p.repo_id, p.name, p.epoch, p.version, p.rel, p.arch,
		        p.sourcerpm, p.srpm_name, p.location, p.excluded
		 FROM packages p JOIN repositories r ON r.repo_id = p.repo_id
		 WHERE r.arch = ?
		 ORDER BY p.srpm_name, p.package_id`, arch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var packages []*models.Package
	for rows.Next() {
		var pkg models.Package
		if err := rows.Scan(&pkg.ID, &pkg.RepoID, &pkg.Name, &pkg.Epoch, &pkg.Version, &pkg.Release,
			&pkg.Arch, &pkg.SourceRPM, &pkg.SrpmName, &pkg.Location, &pkg.Excluded); err != nil {
			return nil, err
		}
		packages = append(packages, &pkg)
	}
	return packages, rows.Err()
}
