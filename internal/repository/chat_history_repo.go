package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ask-io/internal/domain"
)

// ChatHistoryRepository guarda los turnos de chat de cada usuario.
type ChatHistoryRepository interface {
	Save(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]domain.ChatMessage, error)
}

// ChatHistoryCollection es el nombre de la coleccion en MongoDB.
const ChatHistoryCollection = "chat_history"

type chatDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	UserID     string             `bson:"user_id"`
	Message    string             `bson:"message"`
	IsUser     bool               `bson:"is_user"`
	Attachment *domain.Attachment `bson:"attachment,omitempty"`
	CreatedAt  time.Time          `bson:"created_at"`
}

// MongoChatHistoryRepository implementa ChatHistoryRepository sobre una coleccion MongoDB.
type MongoChatHistoryRepository struct {
	coll *mongo.Collection
}

func NewMongoChatHistoryRepository(coll *mongo.Collection) *MongoChatHistoryRepository {
	return &MongoChatHistoryRepository{coll: coll}
}

func (r *MongoChatHistoryRepository) Save(ctx context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	doc := chatDocument{
		UserID:     msg.UserID,
		Message:    msg.Content,
		IsUser:     msg.IsUser,
		Attachment: msg.Attachment,
		CreatedAt:  msg.CreatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return domain.ChatMessage{}, err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		msg.ID = oid.Hex()
	}
	return msg, nil
}

// ListByUser devuelve los ultimos limit mensajes en orden cronologico.
func (r *MongoChatHistoryRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]domain.ChatMessage, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "user_id", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []chatDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.ChatMessage, 0, len(docs))
	for i := len(docs) - 1; i >= 0; i-- {
		d := docs[i]
		out = append(out, domain.ChatMessage{
			ID:         d.ID.Hex(),
			UserID:     d.UserID,
			Content:    d.Message,
			IsUser:     d.IsUser,
			Attachment: d.Attachment,
			CreatedAt:  d.CreatedAt,
		})
	}
	return out, nil
}

type disabledChatHistory struct{}

// NewDisabledChatHistory devuelve un historial que no persiste nada.
func NewDisabledChatHistory() ChatHistoryRepository {
	return disabledChatHistory{}
}

func (disabledChatHistory) Save(_ context.Context, msg domain.ChatMessage) (domain.ChatMessage, error) {
	return msg, nil
}

func (disabledChatHistory) ListByUser(_ context.Context, _ string, _ int64) ([]domain.ChatMessage, error) {
	return []domain.ChatMessage{}, nil
}
