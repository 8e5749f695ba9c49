package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"lab-maintenance-backend/internal/access"
	"lab-maintenance-backend/internal/database"
	"lab-maintenance-backend/internal/models"
	"lab-maintenance-backend/internal/notify"
	"lab-maintenance-backend/internal/repository"
	"lab-maintenance-backend/internal/session"
	"lab-maintenance-backend/pkg/utils"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	utils.SetBcryptCost(bcrypt.MinCost)
	utils.InitJWT("test-access", "test-refresh", time.Hour, 24*time.Hour)
	os.Exit(m.Run())
}

var (
	adminActor = access.Actor{UserID: 1, Role: models.RoleAdmin, Name: "Admin", Email: "admin@lab.test"}
	techActor  = access.Actor{UserID: 2, Role: models.RoleTechnician, Name: "Tech", Email: "tech@lab.test"}
	deanActor  = access.Actor{UserID: 3, Role: models.RoleDean, Name: "Dean", Email: "dean@lab.test"}
	itsdActor  = access.Actor{UserID: 4, Role: models.RoleITSD, Name: "ITSD", Email: "itsd@lab.test"}
)

// fakeSender records messages and fails with err when set; during runs
// before delivery
type fakeSender struct {
	mu     sync.Mutex
	err    error
	sent   []notify.Message
	during func()
}

func (f *fakeSender) Send(_ context.Context, msg notify.Message) error {
	if f.during != nil {
		f.during()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fixture struct {
	db          *gorm.DB
	userRepo    *repository.UserRepository
	statusRepo  *repository.StatusRepository
	reportRepo  *repository.ReportRepository
	sender      *fakeSender
	revoker     *session.MemoryStore
	labs        *LabService
	computers   *ComputerService
	statuses    *StatusService
	reconciler  *ReconcilerService
	reports     *ReportService
	users       *UserService
	auth        *AuthService
	accessories *AccessoryService
	dashboard   *DashboardService
}

func newFixture(t *testing.T, cascade bool) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepo(db)
	userLabRepo := repository.NewUserLabRepo(db)
	labRepo := repository.NewLabRepo(db)
	computerRepo := repository.NewComputerRepo(db)
	statusRepo := repository.NewStatusRepo(db)
	reportRepo := repository.NewReportRepo(db)
	logRepo := repository.NewTechnicianLogRepo(db)
	accessoryRepo := repository.NewAccessoryRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	f := &fixture{
		db:         db,
		userRepo:   userRepo,
		statusRepo: statusRepo,
		reportRepo: reportRepo,
		sender:     &fakeSender{},
		revoker:    session.NewMemoryStore(),
	}
	f.labs = NewLabService(db, labRepo, computerRepo, accessoryRepo, auditRepo, cascade)
	f.computers = NewComputerService(db, labRepo, computerRepo, statusRepo, reportRepo, auditRepo, 100)
	f.statuses = NewStatusService(db, computerRepo, statusRepo, reportRepo, userLabRepo, auditRepo)
	f.reconciler = NewReconcilerService(db, computerRepo, statusRepo, reportRepo, f.statuses, auditRepo)
	f.reports = NewReportService(db, computerRepo, reportRepo, logRepo, f.statuses, auditRepo, f.sender, []string{"itsd@lab.test"})
	f.users = NewUserService(db, userRepo, userLabRepo, labRepo, auditRepo)
	f.auth = NewAuthService(userRepo, auditRepo, f.revoker)
	f.accessories = NewAccessoryService(accessoryRepo, labRepo, auditRepo)
	f.dashboard = NewDashboardService(labRepo, computerRepo, statusRepo, reportRepo, userRepo, f.statuses)
	return f
}

func (f *fixture) lab(t *testing.T, name string) *models.Laboratory {
	t.Helper()
	lab, err := f.labs.CreateLab(context.Background(), adminActor, name, "Building A")
	require.NoError(t, err)
	return lab
}

func (f *fixture) computer(t *testing.T, labID uint, name string, custom ...string) *models.Computer {
	t.Helper()
	in := ComputerInput{PCName: name, Specs: models.StandardParts{"monitor": {Name: "Dell P2419H"}}}
	for _, c := range custom {
		in.OtherParts = append(in.OtherParts, models.CustomPart{Name: c})
	}
	pc, err := f.computers.AddComputer(context.Background(), adminActor, labID, in)
	require.NoError(t, err)
	return pc
}

// user stores an account directly and returns an actor bound to its id
func (f *fixture) user(t *testing.T, name string, role models.Role, password string) access.Actor {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{Name: name, Email: strings.ToLower(name) + "@lab.test", PasswordHash: hash, Role: role}
	require.NoError(t, f.userRepo.CreateUser(context.Background(), u))
	return access.Actor{UserID: u.ID, Role: role, Name: u.Name, Email: u.Email}
}
