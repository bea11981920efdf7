package scouting

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mcdev12/draftroom/go/internal/models"
	"github.com/mcdev12/draftroom/go/internal/rpc"
)

const ScoutingServiceName = "draftroom.scouting.v1.ScoutingService"

const (
	AddToBoardProcedure      = "/" + ScoutingServiceName + "/AddToBoard"
	RemoveFromBoardProcedure = "/" + ScoutingServiceName + "/RemoveFromBoard"
	RevealAttributeProcedure = "/" + ScoutingServiceName + "/RevealAttribute"
	GetWarRoomProcedure      = "/" + ScoutingServiceName + "/GetWarRoom"
	ListBoardProcedure       = "/" + ScoutingServiceName + "/ListBoard"
)

// ScoutingApp defines what the service layer needs from the scouting application
type ScoutingApp interface {
	AddToBoard(ctx context.Context, req AddToBoardRequest) (*models.ScoutingProfile, error)
	RemoveFromBoard(ctx context.Context, profileID int) error
	RevealAttribute(ctx context.Context, req RevealAttributeRequest) (*models.ScoutingProfile, *models.WarRoom, error)
	GetWarRoom(ctx context.Context, teamID int) (*models.WarRoom, error)
	ListBoard(ctx context.Context, teamID int) ([]models.ScoutingProfile, error)
}

var errorCodes = []rpc.CodeMapping{
	rpc.Map(ErrInvalidRequest, connect.CodeInvalidArgument),
	rpc.Map(ErrUnknownAttribute, connect.CodeInvalidArgument),
	rpc.Map(ErrProfileNotFound, connect.CodeNotFound),
	rpc.Map(ErrAlreadyOnBoard, connect.CodeAlreadyExists),
	rpc.Map(ErrProfileTeamMismatch, connect.CodePermissionDenied),
	rpc.Map(ErrAlreadyRevealed, connect.CodeFailedPrecondition),
	rpc.Map(ErrInsufficientPoints, connect.CodeFailedPrecondition),
	rpc.Map(ErrPlayerDrafted, connect.CodeFailedPrecondition),
	rpc.Map(ErrCostMismatch, connect.CodeAborted),
}

// Service implements the ScoutingService RPC interface
type Service struct {
	app ScoutingApp
}

func NewService(app ScoutingApp) *Service {
	return &Service{app: app}
}

func (s *Service) AddToBoard(ctx context.Context, req *connect.Request[AddToBoardRequest]) (*connect.Response[AddToBoardResponse], error) {
	profile, err := s.app.AddToBoard(ctx, *req.Msg)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&AddToBoardResponse{Profile: *profile}), nil
}

func (s *Service) RemoveFromBoard(ctx context.Context, req *connect.Request[RemoveFromBoardRequest]) (*connect.Response[RemoveFromBoardResponse], error) {
	if err := s.app.RemoveFromBoard(ctx, req.Msg.ProfileID); err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&RemoveFromBoardResponse{}), nil
}

func (s *Service) RevealAttribute(ctx context.Context, req *connect.Request[RevealAttributeRequest]) (*connect.Response[RevealAttributeResponse], error) {
	profile, room, err := s.app.RevealAttribute(ctx, *req.Msg)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&RevealAttributeResponse{Profile: *profile, WarRoom: *room}), nil
}

func (s *Service) GetWarRoom(ctx context.Context, req *connect.Request[GetWarRoomRequest]) (*connect.Response[GetWarRoomResponse], error) {
	room, err := s.app.GetWarRoom(ctx, req.Msg.TeamID)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&GetWarRoomResponse{WarRoom: *room}), nil
}

func (s *Service) ListBoard(ctx context.Context, req *connect.Request[ListBoardRequest]) (*connect.Response[ListBoardResponse], error) {
	board, err := s.app.ListBoard(ctx, req.Msg.TeamID)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&ListBoardResponse{Profiles: board}), nil
}

// NewScoutingServiceHandler builds an HTTP handler for every ScoutingService
// procedure and returns the path to mount it on.
func NewScoutingServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	addToBoard := connect.NewUnaryHandler(AddToBoardProcedure, svc.AddToBoard, opts...)
	removeFromBoard := connect.NewUnaryHandler(RemoveFromBoardProcedure, svc.RemoveFromBoard, opts...)
	revealAttribute := connect.NewUnaryHandler(RevealAttributeProcedure, svc.RevealAttribute, opts...)
	getWarRoom := connect.NewUnaryHandler(GetWarRoomProcedure, svc.GetWarRoom, opts...)
	listBoard := connect.NewUnaryHandler(ListBoardProcedure, svc.ListBoard, opts...)

	return "/" + ScoutingServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AddToBoardProcedure:
			addToBoard.ServeHTTP(w, r)
		case RemoveFromBoardProcedure:
			removeFromBoard.ServeHTTP(w, r)
		case RevealAttributeProcedure:
			revealAttribute.ServeHTTP(w, r)
		case GetWarRoomProcedure:
			getWarRoom.ServeHTTP(w, r)
		case ListBoardProcedure:
			listBoard.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
