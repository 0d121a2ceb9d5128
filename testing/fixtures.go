package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates a test user with the given role and a known password
func (tf *TestFixtures) CreateTestUser(role models.UserRole) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123!"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Random digits keep the unique email index happy across fixtures
	randomDigits := fmt.Sprintf("%09d", rand.Intn(900000000)+100000000)

	user := &models.User{
		Name:         fmt.Sprintf("Test %s", role.String()),
		Email:        fmt.Sprintf("%s.%s@example.com", role.String(), randomDigits),
		Phone:        utils.ToPtr(fmt.Sprintf("+1555%s", randomDigits[:7])),
		Role:         role,
		PasswordHash: string(hashedPassword),
		IsActive:     utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}

	return user, nil
}

// CreateTestClient creates an active test client
func (tf *TestFixtures) CreateTestClient() (*models.Client, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	client := &models.Client{
		Name:      fmt.Sprintf("Acme Facilities %s", randomDigits),
		LegalName: utils.ToPtr(fmt.Sprintf("Acme Facilities %s LLC", randomDigits)),
		Email:     utils.ToPtr(fmt.Sprintf("ops.%s@acme.example.com", randomDigits)),
		Phone:     utils.ToPtr("+15550100200"),
		Status:    models.ClientStatusActive,
	}

	if err := tf.DB.DB.Create(client).Error; err != nil {
		return nil, fmt.Errorf("failed to create test client: %w", err)
	}

	return client, nil
}

// CreateTestContact creates a contact for the given client
func (tf *TestFixtures) CreateTestContact(clientID uint, isPrimary bool) (*models.Contact, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	contact := &models.Contact{
		ClientID:  clientID,
		Name:      "Jane Facilities",
		Email:     utils.ToPtr(fmt.Sprintf("jane.%s@acme.example.com", randomDigits)),
		Phone:     utils.ToPtr("+15550100300"),
		Role:      utils.ToPtr("facility manager"),
		IsPrimary: utils.ToPtr(isPrimary),
	}

	if err := tf.DB.DB.Create(contact).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contact: %w", err)
	}

	return contact, nil
}

// CreateTestSite creates a service site for the given client
func (tf *TestFixtures) CreateTestSite(clientID uint, isDefault bool) (*models.Site, error) {
	site := &models.Site{
		ClientID:  clientID,
		Name:      "Main Plant",
		Address:   "123 Industrial Way, Springfield",
		Latitude:  utils.ToPtr(40.7128),
		Longitude: utils.ToPtr(-74.0060),
		IsDefault: utils.ToPtr(isDefault),
	}

	if err := tf.DB.DB.Create(site).Error; err != nil {
		return nil, fmt.Errorf("failed to create test site: %w", err)
	}

	return site, nil
}

// CreateTestContract creates an active contract with the given SLA budgets.
// endDate may be nil for an open-ended contract.
func (tf *TestFixtures) CreateTestContract(clientID uint, responseMinutes, resolutionMinutes int, startDate time.Time, endDate *time.Time) (*models.Contract, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	contract := &models.Contract{
		ClientID:          clientID,
		ContractNumber:    utils.ToPtr(fmt.Sprintf("CTR-%s", randomDigits)),
		StartDate:         startDate.UTC(),
		EndDate:           utils.TimeToUTCPtr(endDate),
		ResponseMinutes:   responseMinutes,
		ResolutionMinutes: resolutionMinutes,
		Status:            models.ContractStatusActive,
	}

	if err := tf.DB.DB.Create(contract).Error; err != nil {
		return nil, fmt.Errorf("failed to create test contract: %w", err)
	}

	return contract, nil
}

// CreateTestServiceType creates an active service type with a unique name
func (tf *TestFixtures) CreateTestServiceType() (*models.ServiceType, error) {
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	serviceType := &models.ServiceType{
		Name:        fmt.Sprintf("maintenance-%s", randomDigits),
		Description: utils.ToPtr("Scheduled preventive maintenance"),
		IsActive:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(serviceType).Error; err != nil {
		return nil, fmt.Errorf("failed to create test service type: %w", err)
	}

	return serviceType, nil
}

// CreateTestOrder creates a pending order with deadlines stamped from the
// given budgets, the same way order creation does.
func (tf *TestFixtures) CreateTestOrder(clientID, siteID, serviceTypeID, createdByID uint, scheduledStart time.Time, responseMinutes, resolutionMinutes int) (*models.Order, error) {
	scheduledStart = scheduledStart.UTC()
	randomDigits := fmt.Sprintf("%06d", rand.Intn(900000)+100000)

	order := &models.Order{
		OrderNumber:        fmt.Sprintf("WO-%s-%s", scheduledStart.Format("20060102"), randomDigits),
		ClientID:           clientID,
		SiteID:             siteID,
		ServiceTypeID:      serviceTypeID,
		Status:             models.OrderStatusPending,
		Priority:           models.OrderPriorityMedium,
		ScheduledStart:     scheduledStart,
		ResponseDeadline:   scheduledStart.Add(time.Duration(responseMinutes) * time.Minute),
		ResolutionDeadline: scheduledStart.Add(time.Duration(resolutionMinutes) * time.Minute),
		CreatedByID:        createdByID,
	}

	if err := tf.DB.DB.Create(order).Error; err != nil {
		return nil, fmt.Errorf("failed to create test order: %w", err)
	}

	return order, nil
}

// CreateOrderScaffold creates the client, site, service type, and dispatcher
// an order depends on, then the order itself. Convenience for flow tests.
func (tf *TestFixtures) CreateOrderScaffold(scheduledStart time.Time, responseMinutes, resolutionMinutes int) (*models.Order, error) {
	client, err := tf.CreateTestClient()
	if err != nil {
		return nil, err
	}

	site, err := tf.CreateTestSite(client.ID, true)
	if err != nil {
		return nil, err
	}

	serviceType, err := tf.CreateTestServiceType()
	if err != nil {
		return nil, err
	}

	dispatcher, err := tf.CreateTestUser(models.RoleDispatcher)
	if err != nil {
		return nil, err
	}

	return tf.CreateTestOrder(client.ID, site.ID, serviceType.ID, dispatcher.ID, scheduledStart, responseMinutes, resolutionMinutes)
}
