package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Billy-Davies-2/adp-draft-board/internal/board"
	"github.com/Billy-Davies-2/adp-draft-board/internal/logger"
	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
	"github.com/Billy-Davies-2/adp-draft-board/internal/pubsub"
)

const defaultSearchLimit = 10

// Server implements BoardServiceServer on top of the board service
type Server struct {
	board  *board.Service
	events pubsub.Broker
}

// NewServer creates a new gRPC server
func NewServer(b *board.Service, events pubsub.Broker) *Server {
	return &Server{board: b, events: events}
}

// GetBoard returns the current board view
func (s *Server) GetBoard(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	logger.Debug("gRPC: Getting board")
	return toStruct(s.board.View())
}

// SortBoard sorts by {column, direction}. Without a direction it behaves like a header click.
func (s *Server) SortBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	column := models.SortColumn(strings.ToLower(stringField(req, "column")))
	direction := models.Direction(strings.ToLower(stringField(req, "direction")))

	var ok bool
	if direction == "" {
		ok = s.board.SelectColumn(column)
	} else {
		ok = s.board.Sort(column, direction)
	}
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "cannot sort by column %q direction %q", column, direction)
	}

	logger.Info("gRPC: Sorted board", "column", column, "direction", direction)
	return toStruct(s.board.View())
}

// FilterBoard applies a position filter
func (s *Server) FilterBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.board.Filter(stringField(req, "position"))
	return toStruct(s.board.View())
}

// ToggleDrafted flips a player's drafted mark
func (s *Server) ToggleDrafted(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	player := strings.TrimSpace(stringField(req, "player"))
	if player == "" {
		return nil, status.Error(codes.InvalidArgument, "player is required")
	}

	drafted := s.board.ToggleDrafted(player)
	logger.Info("gRPC: Toggled drafted", "player", player, "drafted", drafted)

	return structpb.NewStruct(map[string]any{"player": player, "drafted": drafted})
}

// BestAvailable returns the highlighted player
func (s *Server) BestAvailable(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	best, ok := s.board.BestAvailable()
	if !ok {
		return nil, status.Error(codes.NotFound, "no available player")
	}
	return toStruct(best)
}

// SearchPlayers fuzzily matches player names: {query, limit?}
func (s *Server) SearchPlayers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	query := stringField(req, "query")
	if strings.TrimSpace(query) == "" {
		return nil, status.Error(codes.InvalidArgument, "query is required")
	}

	limit := defaultSearchLimit
	if v, ok := req.GetFields()["limit"]; ok && v.GetNumberValue() > 0 {
		limit = int(v.GetNumberValue())
	}

	return toStruct(map[string]any{"results": s.board.Search(query, limit)})
}

// StreamEvents streams board events until the client goes away
func (s *Server) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	if s.events == nil {
		return status.Error(codes.Unavailable, "events are not enabled")
	}

	logger.Debug("gRPC: New client connected to event stream")
	ch := s.events.Subscribe()
	defer s.events.Unsubscribe(ch)

	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return nil
			}
			msg, err := toStruct(event)
			if err != nil {
				return status.Errorf(codes.Internal, "encode event: %v", err)
			}
			if err := stream.Send(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// toStruct converts any JSON-encodable value into a protobuf Struct
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "decode: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("failed to build struct: %w", err)
	}
	return out, nil
}
