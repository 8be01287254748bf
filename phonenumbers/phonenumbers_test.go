package phonenumbers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/agent-console/internal/apitest"
	"github.com/jrsteele09/agent-console/internal/errors"
	"github.com/jrsteele09/agent-console/internal/utils"
	"github.com/jrsteele09/agent-console/phonenumbers"
)

func TestPhoneNumberUpdate_MarshalJSON(t *testing.T) {
	t.Run("empty update sends nothing", func(t *testing.T) {
		data, err := json.Marshal(phonenumbers.PhoneNumberUpdate{})
		require.NoError(t, err)
		require.JSONEq(t, `{}`, string(data))
	})

	t.Run("assign", func(t *testing.T) {
		data, err := json.Marshal(phonenumbers.PhoneNumberUpdate{AgentID: utils.Ptr(int64(7))})
		require.NoError(t, err)
		require.JSONEq(t, `{"agent_id":7}`, string(data))
	})

	t.Run("unassign sends explicit null", func(t *testing.T) {
		data, err := json.Marshal(phonenumbers.PhoneNumberUpdate{UnassignAgent: true, AgentID: utils.Ptr(int64(7))})
		require.NoError(t, err)
		require.JSONEq(t, `{"agent_id":null}`, string(data))
	})
}

func TestPhoneNumbersAPI(t *testing.T) {
	ctx := context.Background()
	server := apitest.New(t)

	var lock sync.Mutex
	var numbers []phonenumbers.PhoneNumber
	server.Handle("GET /phone-numbers/", func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		apitest.WriteJSON(w, http.StatusOK, numbers)
	})
	server.Handle("POST /phone-numbers/", func(w http.ResponseWriter, r *http.Request) {
		var in phonenumbers.PhoneNumberCreate
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			apitest.WriteDetail(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		lock.Lock()
		defer lock.Unlock()
		for _, n := range numbers {
			if n.PhoneNumber == in.PhoneNumber {
				apitest.WriteDetail(w, http.StatusBadRequest, "Phone number already exists")
				return
			}
		}
		n := phonenumbers.PhoneNumber{ID: int64(len(numbers) + 1), UserID: apitest.UserID(r), PhoneNumber: in.PhoneNumber, Provider: phonenumbers.DefaultProvider, AgentID: in.AgentID}
		numbers = append(numbers, n)
		apitest.WriteJSON(w, http.StatusCreated, n)
	})
	server.Handle("PUT /phone-numbers/{id}", func(w http.ResponseWriter, r *http.Request) {
		apitest.WriteDetail(w, http.StatusNotFound, "Phone number not found")
	})

	client, _ := server.SignedInClient(t)
	api := phonenumbers.New(client)

	created, err := api.Create(ctx, phonenumbers.PhoneNumberCreate{PhoneNumber: "+4930123456"})
	require.NoError(t, err)
	require.Equal(t, phonenumbers.DefaultProvider, created.Provider)
	require.Nil(t, created.AgentID)

	_, err = api.Create(ctx, phonenumbers.PhoneNumberCreate{PhoneNumber: "+4930123456"})
	require.ErrorIs(t, err, errors.ErrValidation)
	require.Contains(t, err.Error(), "Phone number already exists")

	_, err = api.Create(ctx, phonenumbers.PhoneNumberCreate{})
	require.ErrorIs(t, err, errors.ErrValidation)

	list, err := api.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = api.Update(ctx, 99, phonenumbers.PhoneNumberUpdate{UnassignAgent: true})
	require.ErrorIs(t, err, errors.ErrNotFound)
}
