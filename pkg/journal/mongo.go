package journal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Protocol-Lattice/funeral-research/pkg/crew"
)

const mongoCloseTimeout = 5 * time.Second

// Mongo stores one document per run and one per task output.
type Mongo struct {
	client  *mongo.Client
	runs    *mongo.Collection
	outputs *mongo.Collection
}

var _ Journal = (*Mongo)(nil)

type mongoOutput struct {
	RunID           string `bson:"run_id"`
	Seq             int    `bson:"seq"`
	crew.TaskOutput `bson:",inline"`
}

// NewMongo connects to uri and uses the runs and task_outputs collections of database.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	db := client.Database(database)
	m := &Mongo{
		client:  client,
		runs:    db.Collection("runs"),
		outputs: db.Collection("task_outputs"),
	}
	_, err = m.outputs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "run_id", Value: 1}, {Key: "seq", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create task_outputs index: %w", err)
	}
	return m, nil
}

func (m *Mongo) Begin(ctx context.Context, runID string) error {
	if err := requireRunID(runID); err != nil {
		return err
	}
	_, err := m.runs.InsertOne(ctx, bson.M{"_id": runID, "started_at": time.Now().UTC(), "next_seq": 0})
	if err != nil {
		return fmt.Errorf("begin run %s: %w", runID, err)
	}
	return nil
}

func (m *Mongo) Append(ctx context.Context, runID string, out crew.TaskOutput) error {
	var run struct {
		NextSeq int `bson:"next_seq"`
	}
	err := m.runs.FindOneAndUpdate(ctx,
		bson.M{"_id": runID},
		bson.M{"$inc": bson.M{"next_seq": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&run)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return err
	}
	_, err = m.outputs.InsertOne(ctx, mongoOutput{RunID: runID, Seq: run.NextSeq, TaskOutput: out})
	return err
}

func (m *Mongo) Entries(ctx context.Context, runID string) ([]Entry, error) {
	cur, err := m.outputs.Find(ctx, bson.M{"run_id": runID}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	for cur.Next(ctx) {
		var doc mongoOutput
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{RunID: doc.RunID, Seq: doc.Seq, TaskOutput: doc.TaskOutput})
	}
	return entries, cur.Err()
}

func (m *Mongo) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, mongoCloseTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}
