// Package mongostore provides the MongoDB record store. Reports are
// expressed as aggregation pipelines evaluated by the server.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// Collection names.
const (
	PatientsCollection     = "patients"
	AppointmentsCollection = "appointments"
)

// Store provides MongoDB access methods.
type Store struct {
	client       *mongo.Client
	patients     *mongo.Collection
	appointments *mongo.Collection
}

var _ store.Backend = (*Store)(nil)

// New connects to MongoDB and verifies the connection.
func New(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client:       client,
		patients:     db.Collection(PatientsCollection),
		appointments: db.Collection(AppointmentsCollection),
	}, nil
}

// Ping checks MongoDB connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes used by listings and reports.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.appointments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "patient", Value: 1}}},
		{Keys: bson.D{{Key: "startTime", Value: 1}}},
		{Keys: bson.D{{Key: "feePaidBy", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create appointment indexes: %w", err)
	}

	_, err = s.patients.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create patient indexes: %w", err)
	}

	return nil
}

// Drop removes both collections. Intended for tests.
func (s *Store) Drop(ctx context.Context) error {
	if err := s.appointments.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop appointments: %w", err)
	}
	if err := s.patients.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop patients: %w", err)
	}
	return nil
}

// CreatePatient inserts a new patient document.
func (s *Store) CreatePatient(ctx context.Context, p *model.Patient) error {
	if _, err := s.patients.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// ListPatients returns every patient in natural order.
func (s *Store) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	cur, err := s.patients.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	patients := make([]*model.Patient, 0)
	if err := cur.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("failed to decode patients: %w", err)
	}
	return patients, nil
}

// GetPatient retrieves a patient by its ID.
func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	var p model.Patient
	err := s.patients.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get patient by ID: %w", err)
	}
	return &p, nil
}

// UpdatePatient applies patch and returns the updated document.
func (s *Store) UpdatePatient(ctx context.Context, id string, patch model.PatientPatch, updatedAt time.Time) (*model.Patient, error) {
	set := bson.D{{Key: "updatedAt", Value: updatedAt}}
	set = appendSet(set, "name", patch.Name)
	if patch.Type != nil {
		set = append(set, bson.E{Key: "type", Value: string(*patch.Type)})
	}
	set = appendSet(set, "ownerName", patch.OwnerName)
	set = appendSet(set, "ownerAddress", patch.OwnerAddress)
	set = appendSet(set, "ownerPhoneNumber", patch.OwnerPhoneNumber)

	var p model.Patient
	err := s.patients.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}
	return &p, nil
}

// DeletePatient removes a patient document if present.
func (s *Store) DeletePatient(ctx context.Context, id string) error {
	if _, err := s.patients.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return nil
}

// CreateAppointment inserts an appointment after checking its patient.
// MongoDB offers no single-statement guard across collections here, so a
// patient deleted between the check and the insert leaves an orphan.
func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	if err := s.requirePatient(ctx, a.PatientID); err != nil {
		return err
	}

	if _, err := s.appointments.InsertOne(ctx, a); err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

// ListAppointments returns appointments matching filter ordered by start time.
func (s *Store) ListAppointments(ctx context.Context, filter store.AppointmentFilter) ([]*model.Appointment, error) {
	cur, err := s.appointments.Find(ctx, appointmentQuery(filter),
		options.Find().SetSort(bson.D{{Key: "startTime", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	appointments := make([]*model.Appointment, 0)
	if err := cur.All(ctx, &appointments); err != nil {
		return nil, fmt.Errorf("failed to decode appointments: %w", err)
	}
	return appointments, nil
}

// UpdateAppointment applies patch and returns the updated document.
func (s *Store) UpdateAppointment(ctx context.Context, id string, patch model.AppointmentPatch, updatedAt time.Time) (*model.Appointment, error) {
	if patch.PatientID != nil {
		if err := s.requirePatient(ctx, *patch.PatientID); err != nil {
			return nil, err
		}
	}

	set := bson.D{{Key: "updatedAt", Value: updatedAt}}
	set = appendSet(set, "patient", patch.PatientID)
	if patch.StartTime != nil {
		set = append(set, bson.E{Key: "startTime", Value: *patch.StartTime})
	}
	if patch.EndTime != nil {
		set = append(set, bson.E{Key: "endTime", Value: *patch.EndTime})
	}
	set = appendSet(set, "description", patch.Description)
	if patch.FeePaidBy != nil {
		set = append(set, bson.E{Key: "feePaidBy", Value: string(*patch.FeePaidBy)})
	}
	if patch.Amount != nil {
		set = append(set, bson.E{Key: "amount", Value: *patch.Amount})
	}

	var a model.Appointment
	err := s.appointments.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	return &a, nil
}

// DeleteAppointment removes an appointment document if present.
func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	if _, err := s.appointments.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

func (s *Store) requirePatient(ctx context.Context, id string) error {
	n, err := s.patients.CountDocuments(ctx, bson.D{{Key: "_id", Value: id}}, options.Count().SetLimit(1))
	if err != nil {
		return fmt.Errorf("failed to check patient: %w", err)
	}
	if n == 0 {
		return store.ErrPatientNotFound
	}
	return nil
}

func appointmentQuery(filter store.AppointmentFilter) bson.D {
	q := bson.D{}
	if filter.PatientID != "" {
		q = append(q, bson.E{Key: "patient", Value: filter.PatientID})
	}
	if filter.FeePaidBy != "" {
		q = append(q, bson.E{Key: "feePaidBy", Value: string(filter.FeePaidBy)})
	}

	start := bson.D{}
	if filter.StartFrom != nil {
		start = append(start, bson.E{Key: "$gte", Value: *filter.StartFrom})
	}
	if filter.StartTo != nil {
		start = append(start, bson.E{Key: "$lte", Value: *filter.StartTo})
	}
	if len(start) > 0 {
		q = append(q, bson.E{Key: "startTime", Value: start})
	}

	return q
}

func appendSet(set bson.D, key string, v *string) bson.D {
	if v == nil {
		return set
	}
	return append(set, bson.E{Key: key, Value: *v})
}
