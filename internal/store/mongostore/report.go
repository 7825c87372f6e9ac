package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/housetable/vetclinic/internal/model"
	"github.com/housetable/vetclinic/internal/store"
)

// UnpaidTotal sums the outstanding amount of a patient's appointments.
func (s *Store) UnpaidTotal(ctx context.Context, patientID string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "patient", Value: patientID},
			{Key: "feePaidBy", Value: string(model.FeeUnpaid)},
		}}},
		sumStage("$amount"),
	}

	total, err := s.sum(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum unpaid amount: %w", err)
	}
	return total, nil
}

// PeriodTotal sums normalized amounts of appointments starting inside rng.
func (s *Store) PeriodTotal(ctx context.Context, rng model.TimeRange, methods []model.FeePaidBy, rates model.Rates) (float64, error) {
	in := bson.A{}
	for _, m := range methods {
		in = append(in, string(m))
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "startTime", Value: bson.D{
				{Key: "$gte", Value: rng.From},
				{Key: "$lte", Value: rng.To},
			}},
			{Key: "feePaidBy", Value: bson.D{{Key: "$in", Value: in}}},
		}}},
		sumStage(normalizedAmount("$amount", "$feePaidBy", rates)),
	}

	total, err := s.sum(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum period amount: %w", err)
	}
	return total, nil
}

// TopPetType joins appointments onto patients and returns the busiest type.
func (s *Store) TopPetType(ctx context.Context) (store.PetTypeCount, bool, error) {
	pipeline := mongo.Pipeline{
		lookupPatient(),
		{{Key: "$unwind", Value: "$patientDoc"}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$patientDoc.type"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: 1}},
	}

	cur, err := s.appointments.Aggregate(ctx, pipeline)
	if err != nil {
		return store.PetTypeCount{}, false, fmt.Errorf("failed to count pet types: %w", err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err := cur.Err(); err != nil {
			return store.PetTypeCount{}, false, fmt.Errorf("failed to count pet types: %w", err)
		}
		return store.PetTypeCount{}, false, nil
	}

	var row struct {
		Type  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.Decode(&row); err != nil {
		return store.PetTypeCount{}, false, fmt.Errorf("failed to decode pet type count: %w", err)
	}

	return store.PetTypeCount{Type: model.PetType(row.Type), Count: row.Count}, true, nil
}

// PetTypeTotal sums normalized amounts of appointments for patients of type t.
func (s *Store) PetTypeTotal(ctx context.Context, t model.PetType, rates model.Rates) (float64, error) {
	pipeline := mongo.Pipeline{
		lookupPatient(),
		{{Key: "$unwind", Value: "$patientDoc"}},
		{{Key: "$match", Value: bson.D{{Key: "patientDoc.type", Value: string(t)}}}},
		sumStage(normalizedAmount("$amount", "$feePaidBy", rates)),
	}

	total, err := s.sum(ctx, pipeline)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pet type amount: %w", err)
	}
	return total, nil
}

// sum runs a pipeline ending in sumStage. No matching documents yields 0.
func (s *Store) sum(ctx context.Context, pipeline mongo.Pipeline) (float64, error) {
	cur, err := s.appointments.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		return 0, cur.Err()
	}

	var row struct {
		Total float64 `bson:"total"`
	}
	if err := cur.Decode(&row); err != nil {
		return 0, err
	}
	return row.Total, nil
}

func sumStage(expr any) bson.D {
	return bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: nil},
		{Key: "total", Value: bson.D{{Key: "$sum", Value: expr}}},
	}}}
}

func lookupPatient() bson.D {
	return bson.D{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: PatientsCollection},
		{Key: "localField", Value: "patient"},
		{Key: "foreignField", Value: "_id"},
		{Key: "as", Value: "patientDoc"},
	}}}
}

// normalizedAmount multiplies amount by the rate of its payment state.
func normalizedAmount(amount, state string, rates model.Rates) bson.D {
	return bson.D{{Key: "$multiply", Value: bson.A{amount, rateSwitch(state, rates)}}}
}

func rateSwitch(state string, rates model.Rates) bson.D {
	branches := bson.A{}
	states := append(append([]model.FeePaidBy{}, model.PaidMethods...), model.FeeUnpaid)
	for _, st := range states {
		branches = append(branches, bson.D{
			{Key: "case", Value: bson.D{{Key: "$eq", Value: bson.A{state, string(st)}}}},
			{Key: "then", Value: rates.Rate(st)},
		})
	}

	return bson.D{{Key: "$switch", Value: bson.D{
		{Key: "branches", Value: branches},
		{Key: "default", Value: 1},
	}}}
}
