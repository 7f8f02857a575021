package ups

type StatusRequest struct {
	Locale           string   `json:"Locale"`
	TrackingNumber   []string `json:"TrackingNumber"`
	IsBarcodeScanned bool     `json:"isBarcodeScanned"`
	Requester        string   `json:"Requester"`
	ReturnToValue    string   `json:"returnToValue"`
}

type Activity struct {
	ActivityScan string `json:"activityScan"`
	Location     string `json:"location"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

type TrackDetail struct {
	TrackingNumber             string     `json:"trackingNumber"`
	PackageStatus              string     `json:"packageStatus"`
	ShipmentProgressActivities []Activity `json:"shipmentProgressActivities"`
}

type StatusResponse struct {
	StatusCode   string        `json:"statusCode"`
	StatusText   string        `json:"statusText"`
	TrackDetails []TrackDetail `json:"trackDetails"`
}
