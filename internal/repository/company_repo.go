package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

type CompanyRepository struct {
	coll *mongo.Collection
}

func NewCompanyRepository(db *mongo.Database) *CompanyRepository {
	return &CompanyRepository{coll: db.Collection("companies")}
}

// Um CNPJ pertence a no máximo uma empresa (índice multikey único).
func (r *CompanyRepository) EnsureIndexes(ctx context.Context) error {
	return ensureIndex(ctx, r.coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "cnpjs", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_cnpjs"),
	})
}

func (r *CompanyRepository) Create(ctx context.Context, c *models.Company) (string, error) {
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	res, err := r.coll.InsertOne(ctx, c)
	if err != nil {
		if isDuplicateKey(err) {
			return "", ErrDuplicateCNPJ
		}
		return "", err
	}
	id, _ := res.InsertedID.(string)
	return id, nil
}

func (r *CompanyRepository) GetByID(ctx context.Context, id string) (*models.Company, error) {
	var c models.Company
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// FindByCNPJ resolve a empresa dona de um CNPJ (origem da solicitação).
func (r *CompanyRepository) FindByCNPJ(ctx context.Context, cnpj string) (*models.Company, error) {
	var c models.Company
	if err := r.coll.FindOne(ctx, bson.M{"cnpjs": cnpj}).Decode(&c); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (r *CompanyRepository) GetAll(ctx context.Context, limit int64, skip int64) ([]models.Company, error) {
	opts := options.Find().SetLimit(limit).SetSkip(skip).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Company{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CompanyPatch: campos nil não são alterados.
type CompanyPatch struct {
	Nome  *string
	CNPJs []string
	Ativo *bool
}

func (r *CompanyRepository) Update(ctx context.Context, id string, p CompanyPatch) error {
	set := bson.M{"updated_at": time.Now()}
	if p.Nome != nil {
		set["nome"] = *p.Nome
	}
	if p.CNPJs != nil {
		set["cnpjs"] = p.CNPJs
	}
	if p.Ativo != nil {
		set["ativo"] = *p.Ativo
	}

	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCNPJ
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CompanyRepository) Replace(ctx context.Context, id string, c *models.Company) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, c)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateCNPJ
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CompanyRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
