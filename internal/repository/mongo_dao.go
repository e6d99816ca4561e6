package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	apperrors "dao-tracker-backend/internal/errors"
	"dao-tracker-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDaoRepository persists dossiers in the daos collection, keyed by
// the application-assigned string id (not ObjectIDs).
type MongoDaoRepository struct {
	coll *mongo.Collection
}

// NewMongoDaoRepository creates the Mongo-backed dossier repository.
func NewMongoDaoRepository(db *mongo.Database) *MongoDaoRepository {
	return &MongoDaoRepository{coll: db.Collection("daos")}
}

func (r *MongoDaoRepository) List(ctx context.Context, filter ListFilter) ([]models.Dao, int64, error) {
	filter.Normalize()

	query := bson.M{}
	if filter.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"numeroListe": re},
			bson.M{"objetDossier": re},
			bson.M{"reference": re},
			bson.M{"autoriteContractante": re},
		}
	}
	if filter.Autorite != "" {
		query["autoriteContractante"] = filter.Autorite
	}
	if filter.DateFrom != nil || filter.DateTo != nil {
		dateRange := bson.M{}
		if filter.DateFrom != nil {
			dateRange["$gte"] = *filter.DateFrom
		}
		if filter.DateTo != nil {
			dateRange["$lte"] = *filter.DateTo
		}
		query["dateDepot"] = dateRange
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("dao list count", err)
	}

	direction := -1
	if filter.Order == "asc" {
		direction = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: filter.Sort, Value: direction}}).
		SetSkip(int64((filter.Page - 1) * filter.PageSize)).
		SetLimit(int64(filter.PageSize))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, apperrors.NewStorageError("dao list", err)
	}
	defer cur.Close(ctx)

	daos := []models.Dao{}
	if err := cur.All(ctx, &daos); err != nil {
		return nil, 0, apperrors.NewStorageError("dao list decode", err)
	}
	return daos, total, nil
}

func (r *MongoDaoRepository) GetByID(ctx context.Context, id string) (*models.Dao, error) {
	var dao models.Dao
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&dao)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("dao get", err)
	}
	return &dao, nil
}

func (r *MongoDaoRepository) Create(ctx context.Context, dao *models.Dao) error {
	_, err := r.coll.InsertOne(ctx, dao)
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.ErrDaoNumberExists
	}
	if err != nil {
		return apperrors.NewStorageError("dao create", err)
	}
	return nil
}

func (r *MongoDaoRepository) Update(ctx context.Context, id string, update DaoUpdate) (*models.Dao, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.ObjetDossier != nil {
		set["objetDossier"] = *update.ObjetDossier
	}
	if update.Reference != nil {
		set["reference"] = *update.Reference
	}
	if update.AutoriteContractante != nil {
		set["autoriteContractante"] = *update.AutoriteContractante
	}
	if update.DateDepot != nil {
		set["dateDepot"] = *update.DateDepot
	}
	if update.Equipe != nil {
		set["equipe"] = *update.Equipe
	}
	if update.Tasks != nil {
		set["tasks"] = *update.Tasks
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var dao models.Dao
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&dao)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError("dao update", err)
	}
	return &dao, nil
}

func (r *MongoDaoRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, apperrors.NewStorageError("dao delete", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoDaoRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return apperrors.NewStorageError("dao delete all", err)
	}
	return nil
}

// MaxSequence scans the year's numeroListe values with a projected find
// and computes the max in memory. Cheap at the expected collection size.
func (r *MongoDaoRepository) MaxSequence(ctx context.Context, year int) (int, error) {
	prefix := fmt.Sprintf("DAO-%d-", year)
	re := primitive.Regex{Pattern: "^" + regexp.QuoteMeta(prefix)}

	opts := options.Find().SetProjection(bson.M{"numeroListe": 1})
	cur, err := r.coll.Find(ctx, bson.M{"numeroListe": re}, opts)
	if err != nil {
		return 0, apperrors.NewStorageError("dao max sequence", err)
	}
	defer cur.Close(ctx)

	max := 0
	for cur.Next(ctx) {
		var doc struct {
			NumeroListe string `bson:"numeroListe"`
		}
		if err := cur.Decode(&doc); err != nil {
			return 0, apperrors.NewStorageError("dao max sequence decode", err)
		}
		y, seq, ok := ParseNumeroListe(doc.NumeroListe)
		if ok && y == year && seq > max {
			max = seq
		}
	}
	if err := cur.Err(); err != nil {
		return 0, apperrors.NewStorageError("dao max sequence cursor", err)
	}
	return max, nil
}
