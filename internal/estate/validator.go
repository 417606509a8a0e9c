package estate

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kabul kuralları sabitleri
var (
	minPercentage       = decimal.RequireFromString("0.01")
	maxTotalPercentage  = decimal.NewFromInt(100) // mülk toplamı
	maxUserPercentage   = decimal.NewFromInt(80)  // kullanıcı başına üst sınır
	minTransactionPrice = decimal.NewFromInt(10000)
	priceBandLower      = decimal.RequireFromString("0.5")
	priceBandUpper      = decimal.RequireFromString("1.5")
)

// admissionInput - kabul kararı için gereken her şey. TotalOwned ve UserOwned,
// güncellenen kaydın kendisi hariç tutularak hesaplanmış olmalı.
type admissionInput struct {
	Percentage      decimal.Decimal
	Price           decimal.Decimal
	TransactionDate time.Time
	TotalOwned      decimal.Decimal // mülkteki diğer işlemlerin yüzde toplamı
	UserOwned       decimal.Decimal // aynı kullanıcının bu mülkteki yüzde toplamı
	EstimatedValue  decimal.Decimal
	Now             time.Time
}

// validateAdmission - önerilen işlemin kabul edilebilirliğine karar verir.
// Saf fonksiyondur, I/O yapmaz. İhlal edilen her kural kendi alanına yazılır;
// ilk hatada durmaz, tüm ihlaller birlikte döner.
func validateAdmission(in admissionInput) Rejections {
	rej := Rejections{}

	if in.Percentage.LessThan(minPercentage) || in.Percentage.GreaterThan(maxTotalPercentage) {
		rej.Add("percentage", "Yüzde 0.01 ile 100 arasında olmalı.")
	}

	if in.TransactionDate.After(in.Now) {
		rej.Add("transaction_date", "İşlem tarihi gelecekte olamaz.")
	}

	if in.TotalOwned.Add(in.Percentage).GreaterThan(maxTotalPercentage) {
		rej.Add("percentage", "Toplam sahiplik oranı %100'ü aşıyor.")
	}

	if in.UserOwned.Add(in.Percentage).GreaterThan(maxUserPercentage) {
		rej.Add("percentage", "Bir kullanıcı bir mülkün en fazla %80'ine sahip olabilir.")
	}

	minPrice := in.EstimatedValue.Mul(priceBandLower)
	maxPrice := in.EstimatedValue.Mul(priceBandUpper)
	if in.Price.LessThan(minPrice) || in.Price.GreaterThan(maxPrice) {
		rej.Add("price", "Fiyat, mülkün tahmini değerinin %50'si ile %150'si arasında olmalı.")
	}

	if in.Price.LessThan(minTransactionPrice) {
		rej.Add("price", "Minimum işlem tutarı 10.000'dir.")
	}

	return rej
}
