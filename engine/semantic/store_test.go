package semantic

import (
	"context"
	"errors"
	"strings"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
)

type mockPoints struct {
	upserts  []*pb.UpsertPoints
	searches []*pb.SearchPoints

	searchResp *pb.SearchResponse
	upsertErr  error
	searchErr  error
}

func (m *mockPoints) Upsert(_ context.Context, in *pb.UpsertPoints, _ ...grpc.CallOption) (*pb.PointsOperationResponse, error) {
	m.upserts = append(m.upserts, in)
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	return &pb.PointsOperationResponse{}, nil
}

func (m *mockPoints) Search(_ context.Context, in *pb.SearchPoints, _ ...grpc.CallOption) (*pb.SearchResponse, error) {
	m.searches = append(m.searches, in)
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	return m.searchResp, nil
}

type mockCollections struct {
	existing []string
	created  []*pb.CreateCollection
}

func (m *mockCollections) List(context.Context, *pb.ListCollectionsRequest, ...grpc.CallOption) (*pb.ListCollectionsResponse, error) {
	resp := &pb.ListCollectionsResponse{}
	for _, name := range m.existing {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (m *mockCollections) Create(_ context.Context, in *pb.CreateCollection, _ ...grpc.CallOption) (*pb.CollectionOperationResponse, error) {
	m.created = append(m.created, in)
	return &pb.CollectionOperationResponse{}, nil
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	cols := &mockCollections{existing: []string{"other"}}
	store := NewWithClients(&mockPoints{}, cols, "products")

	if err := store.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cols.created) != 1 {
		t.Fatalf("created %d collections, want 1", len(cols.created))
	}
	req := cols.created[0]
	if req.CollectionName != "products" {
		t.Errorf("collection = %q", req.CollectionName)
	}
	params := req.GetVectorsConfig().GetParams()
	if params.GetSize() != 768 || params.GetDistance() != pb.Distance_Cosine {
		t.Errorf("params = size %d distance %v", params.GetSize(), params.GetDistance())
	}
}

func TestEnsureCollection_SkipsExisting(t *testing.T) {
	cols := &mockCollections{existing: []string{"products"}}
	store := NewWithClients(&mockPoints{}, cols, "products")

	if err := store.EnsureCollection(context.Background(), 768); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols.created) != 0 {
		t.Errorf("created %d collections, want 0", len(cols.created))
	}
}

func TestUpsert_BuildsStringPayloadPoints(t *testing.T) {
	points := &mockPoints{}
	store := NewWithClients(points, &mockCollections{}, "products")

	err := store.Upsert(context.Background(), []VectorRecord{{
		ID:        "11111111-2222-3333-4444-555555555555",
		Embedding: []float32{0.1, 0.2},
		Payload:   map[string]string{"content": "Acme Wireless Mouse", "price": "Rs.999"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(points.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(points.upserts))
	}
	req := points.upserts[0]
	if req.CollectionName != "products" || req.Wait == nil || !*req.Wait {
		t.Errorf("collection=%q wait=%v", req.CollectionName, req.Wait)
	}
	if len(req.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(req.Points))
	}
	p := req.Points[0]
	if p.GetId().GetUuid() != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("id = %q", p.GetId().GetUuid())
	}
	if got := p.Payload["price"].GetStringValue(); got != "Rs.999" {
		t.Errorf("payload price = %q", got)
	}
}

func TestUpsert_EmptyBatchIsNoop(t *testing.T) {
	points := &mockPoints{}
	store := NewWithClients(points, &mockCollections{}, "products")

	if err := store.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points.upserts) != 0 {
		t.Errorf("upserts = %d, want 0", len(points.upserts))
	}
}

func TestUpsert_WrapsError(t *testing.T) {
	boom := errors.New("unavailable")
	store := NewWithClients(&mockPoints{upsertErr: boom}, &mockCollections{}, "products")

	err := store.Upsert(context.Background(), []VectorRecord{{ID: "x", Embedding: []float32{1}}})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
	if !strings.Contains(err.Error(), "semantic:") {
		t.Errorf("error not namespaced: %v", err)
	}
}

func TestQuery_MapsMatches(t *testing.T) {
	points := &mockPoints{
		searchResp: &pb.SearchResponse{
			Result: []*pb.ScoredPoint{
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "abc"}},
					Score: 0.91,
					Payload: map[string]*pb.Value{
						"content": {Kind: &pb.Value_StringValue{StringValue: "Acme Wireless Mouse"}},
					},
				},
				{
					Id:    &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: "def"}},
					Score: 0.12,
				},
			},
		},
	}
	store := NewWithClients(points, &mockCollections{}, "products")

	matches, err := store.Query(context.Background(), []float32{0.5, 0.5}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(matches))
	}
	if matches[0].ID != "abc" || matches[0].Score != 0.91 {
		t.Errorf("first match: %+v", matches[0])
	}
	if matches[0].Payload["content"] != "Acme Wireless Mouse" {
		t.Errorf("payload: %v", matches[0].Payload)
	}

	req := points.searches[0]
	if req.GetLimit() != 3 {
		t.Errorf("limit = %d", req.GetLimit())
	}
	if !req.GetWithPayload().GetEnable() {
		t.Error("payload not requested")
	}
}

func TestQuery_WrapsError(t *testing.T) {
	boom := errors.New("timeout")
	store := NewWithClients(&mockPoints{searchErr: boom}, &mockCollections{}, "products")

	if _, err := store.Query(context.Background(), []float32{1}, 1); !errors.Is(err, boom) {
		t.Fatalf("got %v, want wrapped boom", err)
	}
}
