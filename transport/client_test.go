package transport_test

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tabitha-Home/THMS-CLIENT/authentication"
	"github.com/Tabitha-Home/THMS-CLIENT/shared"
	sharedmocks "github.com/Tabitha-Home/THMS-CLIENT/shared/mocks"
	. "github.com/Tabitha-Home/THMS-CLIENT/transport"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Client", func() {

	var (
		ctx = context.Background()

		router *mux.Router
		server *httptest.Server

		tempDir      string
		config       *shared.AppConfig
		session      *authentication.Session
		mockNotifier *sharedmocks.MockNotifier
		redirects    int32

		client *DefaultClient
	)

	BeforeEach(func() {
		var err error
		tempDir, err = ioutil.TempDir("", "thms-transport")
		Expect(err).To(BeNil())

		router = mux.NewRouter()
		server = httptest.NewServer(router)

		config = &shared.AppConfig{
			ApiBaseUrl:      server.URL,
			RequestTimeout:  2 * time.Second,
			CredentialsFile: path.Join(tempDir, "credentials.json"),
			LoginUrl:        "/auth/login",
		}

		atomic.StoreInt32(&redirects, 0)
		session = &authentication.Session{
			Config: config,
			Logger: shared.NewLogger("test"),
			OnUnauthorized: func(loginUrl string) {
				atomic.AddInt32(&redirects, 1)
			},
		}
		Expect(session.Save(authentication.Credentials{Token: "test-token"})).To(Succeed())

		mockNotifier = &sharedmocks.MockNotifier{}
		mockNotifier.On("Error", mock.Anything, mock.Anything).Return()
		mockNotifier.On("Success", mock.Anything, mock.Anything).Return()

		client = &DefaultClient{
			Config:          config,
			Logger:          shared.NewLogger("test"),
			Notifier:        mockNotifier,
			Session:         session,
			StringGenerator: &shared.StringGenerator{},
		}
	})

	AfterEach(func() {
		server.Close()
		os.RemoveAll(tempDir)
	})

	Context("successful requests", func() {

		var receivedHeaders http.Header

		BeforeEach(func() {
			router.HandleFunc("/children", func(w http.ResponseWriter, r *http.Request) {
				receivedHeaders = r.Header
				Expect(r.URL.Query().Get("status")).To(Equal("Active"))
				shared.WriteJSON(w, map[string]interface{}{"children": []interface{}{}}, http.StatusOK)
			}).Methods(http.MethodGet)
		})

		It("should attach the bearer token and a request id", func() {
			out := json.RawMessage{}
			params := url.Values{}
			params.Set("status", "Active")

			Expect(client.Get(ctx, "/children", params, &out)).To(Succeed())
			Expect(receivedHeaders.Get("Authorization")).To(Equal("Bearer test-token"))
			Expect(receivedHeaders.Get("X-Request-Id")).NotTo(BeEmpty())
		})
	})

	Context("validation failures", func() {

		BeforeEach(func() {
			router.HandleFunc("/children", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{
					"message": "Validation failed",
					"errors": []interface{}{
						map[string]interface{}{"param": "first_name", "msg": "first_name is required"},
					},
				}, http.StatusBadRequest)
			}).Methods(http.MethodPost)
		})

		It("should map a 400 with field errors and notify the first message", func() {
			err := client.Post(ctx, "/children", map[string]interface{}{}, nil)

			apiErr, ok := AsApiError(err)
			Expect(ok).To(BeTrue())
			Expect(apiErr.Kind).To(Equal(KindValidation))
			Expect(apiErr.Message).To(Equal("first_name is required"))
			Expect(apiErr.FieldErrors).To(HaveLen(1))
			Expect(apiErr.FieldErrors[0].Field).To(Equal("first_name"))
			mockNotifier.AssertCalled(GinkgoT(), "Error", mock.Anything, "first_name is required")
		})
	})

	Context("authentication failures", func() {

		BeforeEach(func() {
			router.HandleFunc("/children", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{"message": "jwt expired"}, http.StatusUnauthorized)
			}).Methods(http.MethodGet)
		})

		It("should clear the credentials and redirect exactly once across concurrent calls", func() {
			wg := sync.WaitGroup{}
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					err := client.Get(ctx, "/children", nil, nil)
					Expect(IsKind(err, KindAuth)).To(BeTrue())
				}()
			}
			wg.Wait()

			Expect(session.Token()).To(BeEmpty())
			Expect(atomic.LoadInt32(&redirects)).To(Equal(int32(1)))
			mockNotifier.AssertNumberOfCalls(GinkgoT(), "Error", 1)
		})
	})

	Context("permission failures", func() {

		BeforeEach(func() {
			router.HandleFunc("/children/{childId}", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{}, http.StatusForbidden)
			}).Methods(http.MethodDelete)
		})

		It("should map a 403 to a generic permission error", func() {
			err := client.Delete(ctx, "/children/child-1")

			Expect(IsKind(err, KindPermission)).To(BeTrue())
			mockNotifier.AssertCalled(GinkgoT(), "Error", mock.Anything, "You do not have permission to perform this action.")
		})
	})

	Context("not found", func() {

		BeforeEach(func() {
			router.HandleFunc("/children/{childId}", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{"message": "No child found with that ID"}, http.StatusNotFound)
			}).Methods(http.MethodGet)
		})

		It("should stay silent and leave absence handling to the caller", func() {
			err := client.Get(ctx, "/children/child-404", nil, nil)

			Expect(IsNotFound(err)).To(BeTrue())
			mockNotifier.AssertNotCalled(GinkgoT(), "Error", mock.Anything, mock.Anything)
		})
	})

	Context("conflicts", func() {

		BeforeEach(func() {
			router.HandleFunc("/children", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{"message": "child_id already in use"}, http.StatusConflict)
			}).Methods(http.MethodPost)
		})

		It("should surface the backend message", func() {
			err := client.Post(ctx, "/children", map[string]interface{}{}, nil)

			apiErr, _ := AsApiError(err)
			Expect(apiErr.Kind).To(Equal(KindConflict))
			Expect(apiErr.Message).To(Equal("child_id already in use"))
		})
	})

	Context("server failures", func() {

		BeforeEach(func() {
			router.HandleFunc("/children", func(w http.ResponseWriter, r *http.Request) {
				shared.WriteJSON(w, map[string]interface{}{}, http.StatusInternalServerError)
			}).Methods(http.MethodGet)
		})

		It("should map a 500 to a retryable server error", func() {
			err := client.Get(ctx, "/children", nil, nil)

			Expect(IsKind(err, KindServer)).To(BeTrue())
			Expect(IsRetryable(err)).To(BeTrue())
		})
	})

	Context("network failures", func() {

		It("should map an unreachable server to a network error", func() {
			config.ApiBaseUrl = "http://127.0.0.1:1"
			err := client.Get(ctx, "/children", nil, nil)

			Expect(IsKind(err, KindNetwork)).To(BeTrue())
			Expect(IsRetryable(err)).To(BeTrue())
		})

		It("should surface a timeout identically to a connectivity failure", func() {
			router.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(300 * time.Millisecond)
			}).Methods(http.MethodGet)
			config.RequestTimeout = 50 * time.Millisecond

			err := client.Get(ctx, "/slow", nil, nil)

			Expect(IsKind(err, KindNetwork)).To(BeTrue())
		})
	})
})
