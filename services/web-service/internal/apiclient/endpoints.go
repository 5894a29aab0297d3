package apiclient

import "strconv"

const (
	pathRegister       = "/customers/register"
	pathLogin          = "/customers/login"
	pathMe             = "/customers/me"
	pathAvailableTimes = "/appointments/available-times"
	pathCreate         = "/appointments/create"
	pathMine           = "/appointments/me"
	pathAppointments   = "/appointments"
)

func appointmentPath(id int64) string {
	return pathAppointments + "/" + strconv.FormatInt(id, 10)
}
