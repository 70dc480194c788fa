package paymentprovider

// Статусы платёжной ссылки PayOS.
const (
	StatusPending   = "PENDING"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Элемент заказа в платёжной ссылке.
type Item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// Запрос на создание платёжной ссылки.
type CreateLinkRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Items       []Item `json:"items"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	BuyerName   string `json:"buyerName,omitempty"`
	BuyerEmail  string `json:"buyerEmail,omitempty"`
	Signature   string `json:"signature"`
}

// Ответ PayOS при создании платёжной ссылки.
type CreateLinkResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		OrderCode   int64  `json:"orderCode"`
		Amount      int64  `json:"amount"`
		CheckoutURL string `json:"checkoutUrl"`
		Status      string `json:"status"`
	} `json:"data"`
}

// Информация о платёжной ссылке.
type LinkInformation struct {
	OrderCode  int64  `json:"orderCode"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amountPaid"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
}

type linkInformationResponse struct {
	Code string          `json:"code"`
	Desc string          `json:"desc"`
	Data LinkInformation `json:"data"`
}

// WebhookPayload тело уведомления PayOS о смене статуса платежа.
type WebhookPayload struct {
	Code      string      `json:"code"`
	Desc      string      `json:"desc"`
	Signature string      `json:"signature"`
	Data      WebhookData `json:"data"`
}

// WebhookData данные платежа внутри уведомления.
type WebhookData struct {
	OrderCode int64  `json:"orderCode"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}
