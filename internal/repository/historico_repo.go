package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

// HistoricoRepository guarda os lançamentos manuais/sistema do histórico.
type HistoricoRepository struct {
	coll *mongo.Collection
}

func NewHistoricoRepository(db *mongo.Database) *HistoricoRepository {
	return &HistoricoRepository{coll: db.Collection("historico")}
}

func (r *HistoricoRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndex(ctx, r.coll, mongo.IndexModel{
		Keys: bson.D{{Key: "event_id", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName("uniq_event_id").
			SetPartialFilterExpression(bson.M{"event_id": bson.M{"$type": "string"}}),
	})
}

func (r *HistoricoRepository) Create(ctx context.Context, e *models.ManualEntry) error {
	_, err := r.coll.InsertOne(ctx, e)
	return err
}

// UpsertByEventID grava no máximo uma vez por mensagem do broker.
// Devolve true quando o lançamento foi criado agora.
func (r *HistoricoRepository) UpsertByEventID(ctx context.Context, e *models.ManualEntry) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"event_id": e.EventID},
		bson.M{"$setOnInsert": e},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if isDuplicateKey(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

func (r *HistoricoRepository) List(ctx context.Context) ([]models.ManualEntry, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "criado_em", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.ManualEntry{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *HistoricoRepository) GetByID(ctx context.Context, id string) (*models.ManualEntry, error) {
	var e models.ManualEntry
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

func (r *HistoricoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
