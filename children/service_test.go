package children_test

import (
	"context"
	"encoding/json"

	. "github.com/Tabitha-Home/THMS-CLIENT/children"
	"github.com/Tabitha-Home/THMS-CLIENT/shared"
	"github.com/Tabitha-Home/THMS-CLIENT/storage"
	storagemocks "github.com/Tabitha-Home/THMS-CLIENT/storage/mocks"
	"github.com/Tabitha-Home/THMS-CLIENT/transport"
	transportmocks "github.com/Tabitha-Home/THMS-CLIENT/transport/mocks"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"
)

var _ = Describe("Service", func() {

	var (
		ctx = context.Background()

		mockClient *transportmocks.MockClient
		mockPhotos *storagemocks.MockPhotoStore

		childService *ChildService
	)

	var respondWith = func(body string) func(mock.Arguments) {
		return func(args mock.Arguments) {
			raw := args.Get(3).(*json.RawMessage)
			*raw = json.RawMessage(body)
		}
	}

	BeforeEach(func() {
		mockClient = &transportmocks.MockClient{}
		mockPhotos = &storagemocks.MockPhotoStore{}
		childService = &ChildService{
			Client: mockClient,
			Photos: mockPhotos,
			Logger: shared.NewLogger("test"),
		}
	})

	Context("ListChildren", func() {

		var (
			list          ChildList
			returnedError error
		)

		JustBeforeEach(func() {
			list, returnedError = childService.ListChildren(ctx, map[string]string{"status": "Active"})
		})

		var assertNormalizedList = func() {
			It("should not return an error", func() {
				Expect(returnedError).To(BeNil())
			})

			It("should return the normalized list shape", func() {
				Expect(list.Items).To(HaveLen(2))
				Expect(list.Items[0].Id).To(Equal("child-1"))
				Expect(list.Items[1].Id).To(Equal("child-2"))
				Expect(list.Total).To(Equal(2))
			})
		}

		Context("with the nested envelope", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children", mock.Anything, mock.Anything).
					Run(respondWith(`{"status":"success","results":2,"pagination":{"total":2},"data":{"children":[{"id":"child-1"},{"id":"child-2"}]}}`)).
					Return(nil)
				mockPhotos.On("Get", mock.Anything).Return("", false)
			})
			assertNormalizedList()
		})

		Context("with the flat envelope", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children", mock.Anything, mock.Anything).
					Run(respondWith(`{"children":[{"id":"child-1"},{"id":"child-2"}],"total":2}`)).
					Return(nil)
				mockPhotos.On("Get", mock.Anything).Return("", false)
			})
			assertNormalizedList()
		})

		Context("with the bare list envelope", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children", mock.Anything, mock.Anything).
					Run(respondWith(`[{"id":"child-1"},{"id":"child-2"}]`)).
					Return(nil)
				mockPhotos.On("Get", mock.Anything).Return("", false)
			})
			assertNormalizedList()
		})

		Context("when one record has a local photo override", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children", mock.Anything, mock.Anything).
					Run(respondWith(`{"children":[{"id":"child-1","photo_url":"https://server/one.jpg"},{"id":"child-2"}]}`)).
					Return(nil)
				mockPhotos.On("Get", "child-1").Return("data:image/jpeg;base64,override", true)
				mockPhotos.On("Get", "child-2").Return("", false)
			})

			It("should overlay the override and leave the rest untouched", func() {
				Expect(returnedError).To(BeNil())
				Expect(list.Items[0].PhotoUrl).To(Equal("data:image/jpeg;base64,override"))
				Expect(list.Items[1].PhotoUrl).To(Equal(""))
			})
		})

		Context("when the transport fails", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children", mock.Anything, mock.Anything).
					Return(&transport.ApiError{Kind: transport.KindServer, Message: "Server error. Please try again later or contact support."})
			})

			It("should re-throw a normalized error", func() {
				Expect(returnedError).NotTo(BeNil())
				apiErr, ok := transport.AsApiError(returnedError)
				Expect(ok).To(BeTrue())
				Expect(apiErr.Message).To(Equal("Server error. Please try again later or contact support."))
			})
		})
	})

	Context("GetChild", func() {

		var (
			child         ChildTransport
			returnedError error
		)

		JustBeforeEach(func() {
			child, returnedError = childService.GetChild(ctx, "child-1")
		})

		Context("with the nested envelope and a stored override", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children/child-1", mock.Anything, mock.Anything).
					Run(respondWith(`{"status":"success","data":{"child":{"id":"child-1","first_name":"Amina","photo_url":"https://server/one.jpg"}}}`)).
					Return(nil)
				mockPhotos.On("Get", "child-1").Return("data:image/jpeg;base64,override", true)
			})

			It("should prefer the override over the server value", func() {
				Expect(returnedError).To(BeNil())
				Expect(child.FirstName).To(Equal("Amina"))
				Expect(child.PhotoUrl).To(Equal("data:image/jpeg;base64,override"))
			})
		})

		Context("with a legacy mongo id", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children/child-1", mock.Anything, mock.Anything).
					Run(respondWith(`{"child":{"_id":"child-1","first_name":"Amina"}}`)).
					Return(nil)
				mockPhotos.On("Get", "child-1").Return("", false)
			})

			It("should map _id onto the id field", func() {
				Expect(returnedError).To(BeNil())
				Expect(child.Id).To(Equal("child-1"))
			})
		})

		Context("without a stored override", func() {
			BeforeEach(func() {
				mockClient.On("Get", mock.Anything, "/children/child-1", mock.Anything, mock.Anything).
					Run(respondWith(`{"child":{"id":"child-1","photo_url":"https://server/one.jpg"}}`)).
					Return(nil)
				mockPhotos.On("Get", "child-1").Return("", false)
			})

			It("should keep the server photo url", func() {
				Expect(returnedError).To(BeNil())
				Expect(child.PhotoUrl).To(Equal("https://server/one.jpg"))
			})
		})

	})

	Context("input guards", func() {

		It("should reject an empty child id without touching the network", func() {
			_, err := childService.GetChild(ctx, "")
			Expect(errors.Cause(err)).To(Equal(ErrEmptyChildId))

			err = childService.DeleteChild(ctx, "")
			Expect(errors.Cause(err)).To(Equal(ErrEmptyChildId))

			mockClient.AssertNotCalled(GinkgoT(), "Get")
			mockClient.AssertNotCalled(GinkgoT(), "Delete")
		})
	})

	Context("AddChild", func() {

		var (
			child         ChildTransport
			returnedError error
			sentPayload   map[string]interface{}
		)

		BeforeEach(func() {
			sentPayload = nil
			mockClient.On("Post", mock.Anything, "/children", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) {
					sentPayload = args.Get(2).(map[string]interface{})
					respondWith(`{"data":{"child":{"id":"child-9","child_id":"TH-2024-009","first_name":"Amina"}}}`)(args)
				}).
				Return(nil)
		})

		JustBeforeEach(func() {
			child, returnedError = childService.AddChild(ctx, map[string]interface{}{
				"first_name":         " Amina ",
				"last_name":          "Bello",
				"gender":             "Female",
				"allergies":          "peanut, egg",
				"medical_conditions": "asthma",
				"date_of_birth":      "2015-03-15",
				"ambition":           "",
			})
		})

		It("should not return an error", func() {
			Expect(returnedError).To(BeNil())
		})

		It("should send the transformed payload", func() {
			Expect(sentPayload["allergies"]).To(Equal([]string{"peanut", "egg"}))
			Expect(sentPayload["first_name"]).To(Equal("Amina"))
			Expect(sentPayload["date_of_birth"]).To(Equal("2015-03-15T00:00:00Z"))
			Expect(sentPayload).NotTo(HaveKey("ambition"))
		})

		It("should unwrap the created record", func() {
			Expect(child.Id).To(Equal("child-9"))
			Expect(child.ChildId).To(Equal("TH-2024-009"))
		})

		It("should not apply the photo overlay", func() {
			mockPhotos.AssertNotCalled(GinkgoT(), "Get")
		})

		Context("with an out of set gender", func() {
			JustBeforeEach(func() {
				child, returnedError = childService.AddChild(ctx, map[string]interface{}{
					"first_name": "Amina",
					"last_name":  "Bello",
					"gender":     "Unknown",
				})
			})

			It("should reject the record before any network call", func() {
				Expect(transport.IsValidation(returnedError)).To(BeTrue())
				apiErr, _ := transport.AsApiError(returnedError)
				Expect(apiErr.FieldErrors[0].Field).To(Equal("gender"))
			})
		})
	})

	Context("UpdateChild", func() {

		var (
			child         ChildTransport
			returnedError error
		)

		BeforeEach(func() {
			mockClient.On("Patch", mock.Anything, "/children/child-1", mock.Anything, mock.Anything).
				Run(respondWith(`{"child":{"id":"child-1","first_name":"Amina"}}`)).
				Return(nil)
			mockPhotos.On("Get", "child-1").Return("data:image/png;base64,override", true)
		})

		JustBeforeEach(func() {
			child, returnedError = childService.UpdateChild(ctx, "child-1", map[string]interface{}{
				"first_name": "Amina",
			})
		})

		It("should unwrap and overlay the updated record", func() {
			Expect(returnedError).To(BeNil())
			Expect(child.PhotoUrl).To(Equal("data:image/png;base64,override"))
		})
	})

	Context("DeleteChild", func() {

		var returnedError error

		JustBeforeEach(func() {
			returnedError = childService.DeleteChild(ctx, "child-1")
		})

		Context("when the delete succeeds", func() {
			BeforeEach(func() {
				mockClient.On("Delete", mock.Anything, "/children/child-1").Return(nil)
				mockPhotos.On("Clear", "child-1").Return(nil)
			})

			It("should cascade into the override store", func() {
				Expect(returnedError).To(BeNil())
				mockPhotos.AssertCalled(GinkgoT(), "Clear", "child-1")
			})
		})

		Context("when the delete fails", func() {
			BeforeEach(func() {
				mockClient.On("Delete", mock.Anything, "/children/child-1").
					Return(&transport.ApiError{Kind: transport.KindNotFound, Message: "Resource not found."})
			})

			It("should not clear the override", func() {
				Expect(transport.IsNotFound(returnedError)).To(BeTrue())
				mockPhotos.AssertNotCalled(GinkgoT(), "Clear", "child-1")
			})
		})
	})

	Context("UpdateChildPhoto", func() {

		var (
			child         ChildTransport
			returnedError error
		)

		BeforeEach(func() {
			mockPhotos.On("Put", mock.Anything, "child-1", "amina.jpg", []byte{0x1}).
				Return("data:image/jpeg;base64,AQ==", nil)
		})

		JustBeforeEach(func() {
			child, returnedError = childService.UpdateChildPhoto(ctx, "child-1", "amina.jpg", []byte{0x1})
		})

		It("should return a record shaped result carrying the new url", func() {
			Expect(returnedError).To(BeNil())
			Expect(child.Id).To(Equal("child-1"))
			Expect(child.PhotoUrl).To(Equal("data:image/jpeg;base64,AQ=="))
		})

		It("should never touch the reserved upload endpoint", func() {
			mockClient.AssertNotCalled(GinkgoT(), "Post")
		})
	})

	Context("ClearChildPhoto", func() {

		BeforeEach(func() {
			mockPhotos.On("Clear", "child-1").Return(nil)
		})

		It("should clear the override without touching the record", func() {
			Expect(childService.ClearChildPhoto("child-1")).To(Succeed())
			mockPhotos.AssertCalled(GinkgoT(), "Clear", "child-1")
			mockClient.AssertNotCalled(GinkgoT(), "Delete")
		})

		It("should reject an empty child id", func() {
			err := childService.ClearChildPhoto("")
			Expect(errors.Cause(err)).To(Equal(ErrEmptyChildId))
			mockPhotos.AssertNotCalled(GinkgoT(), "Clear")
		})
	})

	Context("PhotoMetadata", func() {

		BeforeEach(func() {
			mockPhotos.On("Metadata", "child-1").Return(storage.PhotoMetadata{Filename: "amina.jpg", Size: 1}, nil)
		})

		It("should delegate to the override store", func() {
			meta, err := childService.PhotoMetadata("child-1")
			Expect(err).To(BeNil())
			Expect(meta.Filename).To(Equal("amina.jpg"))
		})
	})
})
