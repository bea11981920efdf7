package pick

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mcdev12/draftroom/go/internal/draft/engine"
	"github.com/mcdev12/draftroom/go/internal/rpc"
)

const DraftPickServiceName = "draftroom.draft.v1.DraftPickService"

const (
	ExportDraftPicksProcedure     = "/" + DraftPickServiceName + "/ExportDraftPicks"
	BringUpCollegePlayerProcedure = "/" + DraftPickServiceName + "/BringUpCollegePlayer"
	ListExportedPicksProcedure    = "/" + DraftPickServiceName + "/ListExportedPicks"
)

// PickApp defines what the service layer needs from the pick application
type PickApp interface {
	ExportDraftPicks(ctx context.Context, req ExportDraftPicksRequest) (*ExportDraftPicksResponse, error)
	BringUpCollegePlayer(ctx context.Context, req BringUpCollegePlayerRequest) (*ExportedPick, error)
	ListExportedPicks(ctx context.Context, req ListExportedPicksRequest) ([]ExportedPick, error)
}

var errorCodes = []rpc.CodeMapping{
	rpc.Map(ErrInvalidRequest, connect.CodeInvalidArgument),
	rpc.Map(ErrTeamNotInDraft, connect.CodeInvalidArgument),
	rpc.Map(ErrDraftInProgress, connect.CodeFailedPrecondition),
	rpc.Map(ErrPickNotExported, connect.CodeNotFound),
	rpc.Map(ErrAlreadyPromoted, connect.CodeAlreadyExists),
	rpc.Map(engine.ErrRoomNotFound, connect.CodeNotFound),
}

// Service implements the DraftPickService RPC interface
type Service struct {
	app PickApp
}

func NewService(app PickApp) *Service {
	return &Service{app: app}
}

// ExportDraftPicks persists a team's picks from the room ledger
func (s *Service) ExportDraftPicks(ctx context.Context, req *connect.Request[ExportDraftPicksRequest]) (*connect.Response[ExportDraftPicksResponse], error) {
	resp, err := s.app.ExportDraftPicks(ctx, *req.Msg)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(resp), nil
}

// BringUpCollegePlayer promotes a drafted player out of the college pool
func (s *Service) BringUpCollegePlayer(ctx context.Context, req *connect.Request[BringUpCollegePlayerRequest]) (*connect.Response[BringUpCollegePlayerResponse], error) {
	pick, err := s.app.BringUpCollegePlayer(ctx, *req.Msg)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&BringUpCollegePlayerResponse{Pick: *pick}), nil
}

func (s *Service) ListExportedPicks(ctx context.Context, req *connect.Request[ListExportedPicksRequest]) (*connect.Response[ListExportedPicksResponse], error) {
	picks, err := s.app.ListExportedPicks(ctx, *req.Msg)
	if err != nil {
		return nil, rpc.ToConnectError(err, errorCodes...)
	}
	return connect.NewResponse(&ListExportedPicksResponse{Picks: picks}), nil
}

// NewDraftPickServiceHandler builds an HTTP handler for every
// DraftPickService procedure and returns the path to mount it on.
func NewDraftPickServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = rpc.HandlerOptions(opts...)
	exportPicks := connect.NewUnaryHandler(ExportDraftPicksProcedure, svc.ExportDraftPicks, opts...)
	bringUp := connect.NewUnaryHandler(BringUpCollegePlayerProcedure, svc.BringUpCollegePlayer, opts...)
	listExported := connect.NewUnaryHandler(ListExportedPicksProcedure, svc.ListExportedPicks, opts...)

	return "/" + DraftPickServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExportDraftPicksProcedure:
			exportPicks.ServeHTTP(w, r)
		case BringUpCollegePlayerProcedure:
			bringUp.ServeHTTP(w, r)
		case ListExportedPicksProcedure:
			listExported.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Client is the caller side of DraftPickService.
type Client struct {
	exportPicks  *connect.Client[ExportDraftPicksRequest, ExportDraftPicksResponse]
	bringUp      *connect.Client[BringUpCollegePlayerRequest, BringUpCollegePlayerResponse]
	listExported *connect.Client[ListExportedPicksRequest, ListExportedPicksResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = rpc.ClientOptions(opts...)
	return &Client{
		exportPicks:  connect.NewClient[ExportDraftPicksRequest, ExportDraftPicksResponse](httpClient, baseURL+ExportDraftPicksProcedure, opts...),
		bringUp:      connect.NewClient[BringUpCollegePlayerRequest, BringUpCollegePlayerResponse](httpClient, baseURL+BringUpCollegePlayerProcedure, opts...),
		listExported: connect.NewClient[ListExportedPicksRequest, ListExportedPicksResponse](httpClient, baseURL+ListExportedPicksProcedure, opts...),
	}
}

func (c *Client) ExportDraftPicks(ctx context.Context, req ExportDraftPicksRequest) (*ExportDraftPicksResponse, error) {
	res, err := c.exportPicks.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) BringUpCollegePlayer(ctx context.Context, req BringUpCollegePlayerRequest) (*BringUpCollegePlayerResponse, error) {
	res, err := c.bringUp.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *Client) ListExportedPicks(ctx context.Context, req ListExportedPicksRequest) (*ListExportedPicksResponse, error) {
	res, err := c.listExported.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
