package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Project-FinanceHUB/financehub/internal/models"
)

type SolicitacaoRepository struct {
	coll *mongo.Collection
}

func NewSolicitacaoRepository(db *mongo.Database) *SolicitacaoRepository {
	return &SolicitacaoRepository{coll: db.Collection("solicitacoes")}
}

func (r *SolicitacaoRepository) EnsureIndexes(ctx context.Context) error {
	if err := ensureIndex(ctx, r.coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "numero", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_numero"),
	}); err != nil {
		return err
	}
	return ensureIndex(ctx, r.coll, mongo.IndexModel{
		Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "data_criacao", Value: -1}},
		Options: options.Index().SetName("company_data"),
	})
}

func (r *SolicitacaoRepository) Create(ctx context.Context, s *models.Solicitacao) error {
	if _, err := r.coll.InsertOne(ctx, s); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicateNumero
		}
		return err
	}
	return nil
}

func (r *SolicitacaoRepository) GetByID(ctx context.Context, id string) (*models.Solicitacao, error) {
	var s models.Solicitacao
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List devolve a coleção inteira, mais recentes primeiro.
func (r *SolicitacaoRepository) List(ctx context.Context) ([]models.Solicitacao, error) {
	opts := options.Find().SetSort(bson.D{{Key: "data_criacao", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Solicitacao{}
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Save grava só os campos editáveis. visualizado/respondido ficam de fora:
// eles mudam apenas por SetFlag, e nunca voltam para false.
func (r *SolicitacaoRepository) Save(ctx context.Context, s *models.Solicitacao) error {
	set := bson.M{
		"titulo":           s.Titulo,
		"origem":           s.Origem,
		"company_id":       s.CompanyID,
		"status":           s.Status,
		"prioridade":       s.Prioridade,
		"estagio":          s.Estagio,
		"mes":              s.Mes,
		"descricao":        s.Descricao,
		"mensagem":         s.Mensagem,
		"boleto":           s.Boleto,
		"nota_fiscal":      s.NotaFiscal,
		"data_atualizacao": s.DataAtualizacao,
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

type Flag string

const (
	FlagVisualizado Flag = "visualizado"
	FlagRespondido  Flag = "respondido"
)

// SetFlag liga a flag com o timestamp. O filtro só casa enquanto a flag está
// desligada; changed=false quando outro processo já tinha ligado.
func (r *SolicitacaoRepository) SetFlag(ctx context.Context, id string, f Flag, at time.Time) (bool, error) {
	field := string(f)
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, field: bson.M{"$ne": true}},
		bson.M{"$set": bson.M{field: true, field + "_em": at, "data_atualizacao": at}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 1 {
		return true, nil
	}
	n, err := r.coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return false, nil
}

func (r *SolicitacaoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
