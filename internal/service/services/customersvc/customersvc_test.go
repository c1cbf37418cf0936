package customersvc

import (
	"context"
	"errors"
	"testing"

	"github.com/comandaviva/pdv/internal/dal/asaas"
	"github.com/comandaviva/pdv/internal/service/models/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProfileRepo struct {
	profiles []profile.Profile
	calls    int
}

func (f *fakeProfileRepo) Search(
	_ context.Context,
	_ string,
	limit int,
) ([]profile.Profile, error) {
	f.calls++
	if len(f.profiles) > limit {
		return f.profiles[:limit], nil
	}

	return f.profiles, nil
}

type fakeProvider struct {
	customers []asaas.Customer
	err       error
	cpfCalls  []string
	nameCalls []string
}

func (f *fakeProvider) SearchCustomersByCpf(
	_ context.Context,
	cpf string,
	_ int,
) ([]asaas.Customer, error) {
	f.cpfCalls = append(f.cpfCalls, cpf)

	return f.customers, f.err
}

func (f *fakeProvider) SearchCustomersByName(
	_ context.Context,
	name string,
	_ int,
) ([]asaas.Customer, error) {
	f.nameCalls = append(f.nameCalls, name)

	return f.customers, f.err
}

func newFixture() (*CustomerService, *fakeProfileRepo, *fakeProvider) {
	repo := &fakeProfileRepo{}
	prov := &fakeProvider{}
	svc := MustNewCustomerService(WithRepository(repo), WithProvider(prov))

	return svc, repo, prov
}

func TestSearch_ShortQueryShortCircuits(t *testing.T) {
	svc, repo, prov := newFixture()

	results, err := svc.Search(context.Background(), "ab")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
	assert.Zero(t, repo.calls)
	assert.Empty(t, prov.cpfCalls)
	assert.Empty(t, prov.nameCalls)
}

func TestSearch_ShortAccentedQueryShortCircuits(t *testing.T) {
	// "Zé" is two characters but three bytes; length is counted in runes.
	svc, repo, prov := newFixture()

	results, err := svc.Search(context.Background(), "Zé")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, repo.calls)
	assert.Empty(t, prov.cpfCalls)
	assert.Empty(t, prov.nameCalls)
}

func TestSearch_DigitsQueryGoesToCpfLookup(t *testing.T) {
	svc, _, prov := newFixture()

	_, err := svc.Search(context.Background(), "123.456.789-00")
	require.NoError(t, err)
	require.Len(t, prov.cpfCalls, 1)
	assert.Equal(t, "12345678900", prov.cpfCalls[0])
	assert.Empty(t, prov.nameCalls)
}

func TestSearch_TextQueryGoesToNameLookup(t *testing.T) {
	svc, _, prov := newFixture()

	_, err := svc.Search(context.Background(), "Maria")
	require.NoError(t, err)
	assert.Empty(t, prov.cpfCalls)
	require.Len(t, prov.nameCalls, 1)
	assert.Equal(t, "Maria", prov.nameCalls[0])
}

func TestSearch_DedupesByNormalizedCpf(t *testing.T) {
	svc, repo, prov := newFixture()
	repo.profiles = []profile.Profile{
		{ID: "p1", FullName: "Maria Souza", Cpf: "12345678900"},
	}
	prov.customers = []asaas.Customer{
		{ID: "cus_001", Name: "Maria S.", CpfCnpj: "123.456.789-00"},
		{ID: "cus_002", Name: "Mariana Lima", CpfCnpj: "98765432100"},
	}

	results, err := svc.Search(context.Background(), "Maria")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "p1", results[0].ID)
	assert.Equal(t, profile.SourceLocal, results[0].Source)

	assert.Equal(t, "asaas_cus_002", results[1].ID)
	assert.Equal(t, profile.SourceAsaas, results[1].Source)
}

func TestSearch_ProviderFailureDegradesToLocal(t *testing.T) {
	svc, repo, prov := newFixture()
	repo.profiles = []profile.Profile{
		{ID: "p1", FullName: "João Pedro"},
	}
	prov.err = errors.New("gateway timeout")

	results, err := svc.Search(context.Background(), "João")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)
}

func TestSearch_LocalResultsCappedAtFive(t *testing.T) {
	svc, repo, _ := newFixture()
	for i := 0; i < 8; i++ {
		repo.profiles = append(repo.profiles, profile.Profile{
			ID: string(rune('a' + i)), FullName: "Cliente",
		})
	}

	results, err := svc.Search(context.Background(), "Cliente")
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestNormalizeCpf(t *testing.T) {
	assert.Equal(t, "12345678900", profile.NormalizeCpf("123.456.789-00"))
	assert.Equal(t, "", profile.NormalizeCpf("abc"))
}
