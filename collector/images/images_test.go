package images

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/pockettcg/collector/collector/catalog"
)

type fakeHeader struct {
	existing map[string]bool
	calls    int
}

func (f *fakeHeader) HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.calls++
	if f.existing[*in.Key] {
		return &s3.HeadObjectOutput{}, nil
	}
	return nil, errors.New("NotFound")
}

func testCard() catalog.Card {
	return catalog.Card{Set: "A1", Number: 1, Name: "Bulbasaur", ImageName: "cPK_10_000010_00"}
}

func TestCardURL(t *testing.T) {
	svc := NewWithClient(&fakeHeader{}, "sfo3", "pocket", "cards", "https://example.com/back.webp")

	got := svc.CardURL(testCard())
	want := "https://pocket.sfo3.digitaloceanspaces.com/cards/A1/cPK_10_000010_00.webp"
	if got != want {
		t.Errorf("CardURL = %q, want %q", got, want)
	}
}

func TestCardURLKeepsExistingExtension(t *testing.T) {
	svc := NewWithClient(&fakeHeader{}, "sfo3", "pocket", "cards", "")

	card := testCard()
	card.ImageName = "bulbasaur.jpg"
	got := svc.CardURL(card)
	want := "https://pocket.sfo3.digitaloceanspaces.com/cards/A1/bulbasaur.jpg"
	if got != want {
		t.Errorf("CardURL = %q, want %q", got, want)
	}
}

func TestCardURLPlaceholderWithoutImageName(t *testing.T) {
	svc := NewWithClient(&fakeHeader{}, "sfo3", "pocket", "cards", "https://example.com/back.webp")

	card := testCard()
	card.ImageName = ""
	if got := svc.CardURL(card); got != "https://example.com/back.webp" {
		t.Errorf("CardURL = %q, want placeholder", got)
	}
}

func TestResolveURLFallsBackOnMiss(t *testing.T) {
	header := &fakeHeader{existing: map[string]bool{}}
	svc := NewWithClient(header, "sfo3", "pocket", "cards", "https://example.com/back.webp")

	if got := svc.ResolveURL(context.Background(), testCard()); got != "https://example.com/back.webp" {
		t.Errorf("ResolveURL = %q, want placeholder", got)
	}
}

func TestResolveURLMemoizesExistenceChecks(t *testing.T) {
	header := &fakeHeader{existing: map[string]bool{
		"cards/A1/cPK_10_000010_00.webp": true,
	}}
	svc := NewWithClient(header, "sfo3", "pocket", "cards", "https://example.com/back.webp")

	want := "https://pocket.sfo3.digitaloceanspaces.com/cards/A1/cPK_10_000010_00.webp"
	for i := 0; i < 3; i++ {
		if got := svc.ResolveURL(context.Background(), testCard()); got != want {
			t.Fatalf("ResolveURL = %q, want %q", got, want)
		}
	}
	if header.calls != 1 {
		t.Errorf("HeadObject called %d times, want 1", header.calls)
	}
}
