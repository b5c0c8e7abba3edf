package postgres

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"office-archive-indexer/internal/core/domain"
)

func newTaxonomyRepoWithMock(t *testing.T) (*TaxonomyRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return NewTaxonomyRepository(db), mock, func() { _ = db.Close() }
}

func TestUpsertDepartmentReturnsSurvivingID(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO departments").
		WithArgs(sqlmock.AnyArg(), "IT").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("dept-1"))

	dept, err := repo.UpsertDepartment(context.Background(), "IT")
	if err != nil {
		t.Fatalf("UpsertDepartment() error = %v", err)
	}
	if dept.ID != "dept-1" || dept.Name != "IT" {
		t.Fatalf("unexpected department: %+v", dept)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTopicReturnsDomainNotFound(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, slug, category_id").
		WithArgs("cat-1", "huong-dan-su-dung").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetTopic(context.Background(), "cat-1", "huong-dan-su-dung")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateTopicMapsUniqueViolation(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO topics").
		WithArgs("topic-1", "Hướng dẫn sử dụng", "huong-dan-su-dung", "cat-1").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := repo.CreateTopic(context.Background(), &domain.Topic{
		ID:         "topic-1",
		Name:       "Hướng dẫn sử dụng",
		Slug:       "huong-dan-su-dung",
		CategoryID: "cat-1",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateTopicAssignsID(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO topics").
		WithArgs(sqlmock.AnyArg(), "Firmware", "firmware", "cat-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	topic := &domain.Topic{Name: "Firmware", Slug: "firmware", CategoryID: "cat-1"}
	if err := repo.CreateTopic(context.Background(), topic); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	if topic.ID == "" {
		t.Fatalf("expected generated topic ID")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetModelByNameScansNullBrand(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectQuery("SELECT id, name, brand_id").
		WithArgs("MPC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "brand_id"}).
			AddRow("model-1", "MPC", nil))

	model, err := repo.GetModelByName(context.Background(), "MPC")
	if err != nil {
		t.Fatalf("GetModelByName() error = %v", err)
	}
	if model.BrandID != "" {
		t.Fatalf("expected empty brand ID, got %q", model.BrandID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateModelMapsUniqueViolation(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO machine_models").
		WithArgs("model-1", "MPC", "brand-1").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode})

	err := repo.CreateModel(context.Background(), &domain.MachineModel{
		ID:      "model-1",
		Name:    "MPC",
		BrandID: "brand-1",
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestSetModelBrandUpdatesRow(t *testing.T) {
	repo, mock, done := newTaxonomyRepoWithMock(t)
	defer done()

	mock.ExpectExec("UPDATE machine_models").
		WithArgs("model-1", "brand-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetModelBrand(context.Background(), "model-1", "brand-1"); err != nil {
		t.Fatalf("SetModelBrand() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
