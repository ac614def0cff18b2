package auth

import (
	"testing"

	convey "github.com/smartystreets/goconvey/convey"
	"github.com/zalando/go-keyring"
)

func init() {
	keyring.MockInit()
}

func TestAuth(t *testing.T) {
	convey.Convey("Given no stored password", t, func() {
		convey.So(Reset(), convey.ShouldBeNil)

		convey.Convey("Then the default password is accepted", func() {
			isDefault, err := IsDefault()
			convey.So(err, convey.ShouldBeNil)
			convey.So(isDefault, convey.ShouldBeTrue)
			convey.So(Verify(DefaultPassword), convey.ShouldBeNil)
			convey.So(Verify("nope"), convey.ShouldEqual, ErrWrongPassword)
		})

		convey.Convey("When setting a new password", func() {
			convey.So(SetPassword(DefaultPassword, "s3cret"), convey.ShouldBeNil)

			convey.Convey("Then only the new password is accepted", func() {
				convey.So(Verify("s3cret"), convey.ShouldBeNil)
				convey.So(Verify(DefaultPassword), convey.ShouldEqual, ErrWrongPassword)

				isDefault, err := IsDefault()
				convey.So(err, convey.ShouldBeNil)
				convey.So(isDefault, convey.ShouldBeFalse)
			})

			convey.Convey("Then the stored value is not the password itself", func() {
				stored, err := keyring.Get(service, user)
				convey.So(err, convey.ShouldBeNil)
				convey.So(stored, convey.ShouldNotEqual, "s3cret")
			})

			convey.Convey("Then changing it requires the current one", func() {
				convey.So(SetPassword(DefaultPassword, "other"), convey.ShouldEqual, ErrWrongPassword)
				convey.So(SetPassword("s3cret", ""), convey.ShouldEqual, ErrEmptyPassword)
			})
		})
	})
}
